// Package http serves the lockbox HTTP surface.
//
// Every request is classified once by a Classifier. The resulting
// lockbox.Verdict is stored in the request context and handed to each
// handler as an explicit argument. A Gate then runs with that verdict and
// may answer the request itself, for example with a redirect to the
// classified page or a 401 challenge. Only then is the request routed.
//
// # Routes
//
//	/<segment>               classified landing page (classified clients only)
//	POST /api/<segment>/verify   challenge to session token exchange
//	/, /index.html           landing page
//	/search, /search.html    search page
//	POST /api/upload         normal or classified upload
//	GET  /api/read           read by filename and password
//	POST /api/search         list stored filenames
//	/download/<name>         download by filename and password
//
// Anything else renders the landing page.
//
// # Usage
//
//	tokens := classifier.NewTokens(keyRing, 0, 0)
//	c := classifier.New(classifier.HeaderRules{UserAgents: []string{"vlc"}}, tokens, nil)
//	gate := authgate.New(tokens, "Playback", http.PagePath("player"), http.VerifyPath("player"))
//
//	handler := http.NewHandler(&http.HandlerConfig{}, service, http.ClientAuth{
//	    Classifier: c,
//	    Gate:       gate,
//	    Tokens:     tokens,
//	})
//	stdhttp.ListenAndServe(":8080", handler.Router())
//
// API errors are JSON objects with a human readable "error" and a machine
// readable "code". Page routes always render HTML.
package http
