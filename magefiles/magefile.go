// Package main provides build targets for the cabinet project using Mage.
//
// Usage:
//
//	mage build             Compile the cabinet binary to bin/
//	mage test:all          Run every test
//	mage test:unit         Run tests that need no database
//	mage test:integration  Run tests that open a SQLite database
//	mage test:cover        Run every test with a coverage profile
//	mage lint              Run golangci-lint
//	mage clean             Remove build artifacts
//	mage install           Install cabinet to GOPATH/bin
//	mage stats             Print lines of code per package
package main
