package cabinet

// Version is the cabinet release version.
const Version = "0.1.0"
