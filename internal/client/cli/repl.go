package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Google(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Refresh(ctx context.Context) error
	Open(ctx context.Context, path string) error
	News(ctx context.Context, category string) error
	Upload(ctx context.Context, path string) error
}

// runREPL starts a simple read–eval–print loop for the MedCare CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           — show available commands
//	  - login          — authenticate with email and password
//	  - signup         — create an account
//	  - google         — sign in with a google credential
//	  - news [cat]     — browse news articles
//	  - open <path>    — open a view (protected views redirect to login)
//	  - whoami         — show session state
//	  - exit | quit    — leave the program
//
//	Logged in, additionally:
//	  - report         — open the diagnostic report view
//	  - rays           — open the X-ray/MRI view
//	  - analysis       — open the analysis view
//	  - upload <file>  — upload an MRI scan
//	  - refresh        — re-fetch the profile from the server
//	  - logout         — log out
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("medcare %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: news, report, rays, analysis, upload <file>, open <path>, whoami, refresh, logout, exit")
			} else {
				printlnFn("Available commands: login, signup, google, news, open <path>, whoami, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "signup":
			_ = a.Signup(ctx)

		case "google":
			_ = a.Google(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "open":
			if len(args) == 0 {
				printlnFn("Usage: open <path>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "news":
			category := ""
			if len(args) > 0 {
				category = args[0]
			}
			_ = a.News(ctx, category)

		case "report":
			_ = a.Open(ctx, "/report")

		case "rays":
			_ = a.Open(ctx, "/rays")

		case "analysis":
			_ = a.Open(ctx, "/analysis")

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <file>")
				continue
			}
			_ = a.Upload(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
