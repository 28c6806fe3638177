// Package testutil provides a Gin-backed test server.
//
//	srv := testutil.NewComponent(server.WithHost("127.0.0.1"))
//	srv.GinEngine().GET("/hello", func(c *gin.Context) {
//	    c.String(200, "world")
//	})
//	testutil.T(t).Setup(srv)
//
//	resp, _ := http.Get(srv.URL("/hello"))
//
// The component records exchanges like any server.Server; Log returns them
// after Stop.
package testutil
