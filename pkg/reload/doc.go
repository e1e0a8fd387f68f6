// Package reload swaps in a freshly loaded configuration while the relay
// keeps running.
//
// A Watcher listens to one or more Sources and calls config.Store.Reload
// for every event they emit. SignalSource turns SIGHUP into events and
// FileSource watches the configuration file with fsnotify. A reload that
// fails to read, parse or validate leaves the active snapshot in place; it
// is logged and counted but never stops the process.
//
// Sessions that are already authenticated keep the user and target they
// resolved. Only sessions authenticating after the swap see the new users.
//
// Basic usage:
//
//	w := reload.NewWatcher(store, collector, logger,
//	    reload.NewSignalSource(),
//	)
//	go w.Run(ctx)
package reload
