// Package fsw wraps a libfswatch-style, handle-based file-system change
// notification library in a safe session API.
//
// The library must be initialized once per process before any session is
// created:
//
//	if err := fsw.InitLibrary(); err != nil {
//	    return err
//	}
//
//	session, err := fsw.NewBuilder("./").
//	    Recursive(true).
//	    Latency(500 * time.Millisecond).
//	    BuildWithCallback(func(events []fsw.Event) {
//	        for _, e := range events {
//	            fmt.Println(e.Path, e.Flags)
//	        }
//	    })
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	// Blocks until the monitor is stopped.
//	err = session.StartMonitor()
//
// # Callbacks
//
// Callbacks are invoked from the goroutine (or, with the libfswatch backend,
// the OS thread) running the native monitor loop, which is not necessarily
// the goroutine that created the session. A callback must therefore be safe
// to run concurrently with the rest of the program. A panic inside a callback
// is recovered and logged; it never reaches the native library and the next
// batch is still delivered.
//
// # Iteration
//
// Session.Iter turns the callback-driven monitor into a pull-based sequence:
//
//	it, err := session.Iter(64)
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//	for event := range it.All() {
//	    fmt.Println(event)
//	}
//
// # Backends
//
// By default sessions are served by a pure-Go implementation of the
// libfswatch API (inotify on Linux, fsnotify elsewhere, plus a poll
// monitor). Building with -tags libfswatch links the real libfswatch
// through cgo instead.
package fsw
