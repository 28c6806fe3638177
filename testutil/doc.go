// Package testutil ties test components to the lifetime of a test.
//
// Automatic cleanup:
//
//	func TestClient(t *testing.T) {
//	    srv := server.New(handler)
//	    testutil.T(t).Setup(srv)
//	    // srv is stopped when the test ends
//	}
//
// Manual cleanup:
//
//	cleanup, err := testutil.Setup(srv)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer cleanup()
//
// Several servers at once:
//
//	manager := testutil.NewManager(ctx)
//	manager.Add(upstream)
//	manager.Add(auth)
//	if err := manager.StartAll(); err != nil {
//	    t.Fatal(err)
//	}
//	t.Cleanup(func() { _ = manager.Cleanup() })
//
// TestComponent extends component.Component with Reset, Snapshot and Restore
// so that recorded state can be cleared or rolled back between cases.
//
// Manager operations are safe for concurrent use. Components are started in
// registration order and stopped in reverse.
package testutil
