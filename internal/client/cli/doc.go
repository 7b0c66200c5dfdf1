// Package cli implements authctl, the command-line client of the auth
// service. It registers and logs users in over REST or gRPC, keeps the
// issued token in a private file and checks it against the protected
// endpoint.
//
// Commands:
//
//	authctl register <email>   create an account and store its token
//	authctl login <email>      log in and store the token
//	authctl whoami             show the claims of the stored token
//	authctl logout             delete the stored token
//	authctl version            print build metadata
//
// Passwords are read from the terminal without echo, or from the first
// line of standard input with --password-stdin.
package cli
