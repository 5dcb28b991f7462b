// Package lockbox provides a small password-protected text store with a
// client-classification gate for playback clients.
//
// Items are stored in a pluggable key-value FileStore under the key
// "file:<filename>". Each item carries its content and a bcrypt hash of the
// password chosen at upload time. Reads check the password after lookup.
//
// # Key Components
//
//   - Service: upload, read, search and fetch operations over a FileStore
//   - FileStore: narrow get/put/list interface implemented by the database,
//     filesystem and objectstore packages
//   - Verdict: per-request classification result produced by the classifier
//     package and consumed by the http package
//
// # Example Usage
//
//	service, err := lockbox.NewService(store, lockbox.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store an item
//	_, err = service.Upload(ctx, lockbox.UploadRequest{
//	    Filename: "notes.txt",
//	    Content:  "hello",
//	    Password: "pw1",
//	})
//
//	// Read it back
//	item, err := service.Read(ctx, "notes.txt", "pw1")
//
// See the http package for the HTTP surface and the classifier package for
// request classification.
package lockbox
