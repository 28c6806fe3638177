// Package server provides a disposable HTTP server for tests.
//
// A Server serves one http.Handler on the first free port at or above its
// start port, records every request/response pair and tears down without
// leaking goroutines or sockets:
//
//	srv := server.New(handler, server.WithHost("127.0.0.1"))
//	if err := srv.Start(ctx); err != nil {
//	    t.Fatal(err)
//	}
//	resp, err := http.Get(srv.URL("/users?id=1"))
//	...
//	if err := srv.Stop(ctx); err != nil {
//	    t.Fatal(err)
//	}
//	for _, ex := range srv.Log() {
//	    t.Log(ex.Request.Path, ex.Response.Status)
//	}
//
// Do and testutil.T(t).Setup tie the lifetime to a function or a test.
//
// # Lifecycle
//
// A Server moves through stopped, starting, running and stopping. Start and
// Stop are no-ops in any other state than stopped and running respectively.
// Both are bounded by Config.Timeout; a missed deadline terminates the runner
// and returns START_TIMEOUT or STOP_TIMEOUT.
//
// Connections are admitted one at a time and keep-alives are disabled, so
// exchanges are recorded in the order the server handled them.
//
// # Configuration
//
// Options override the defaults in DefaultConfig. LoadConfig reads the same
// fields from a testserver.yml file, a .env.testserver file and TESTSERVER_*
// environment variables.
package server
