// Package clientcli provides a client library for a lockbox server.
//
// It supports upload, read, download, and search against the server's HTTP
// API. Every item carries its own password; the client sends it with each
// read and falls back to the password of the active profile.
//
// # Basic Usage
//
//	cfg := &clientcli.Config{
//		Endpoint: "http://localhost:8080",
//		Password: "hunter2",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		Paths: []string{"./notes.txt"},
//	})
//
//	item, err := client.Read(ctx, "notes.txt", "")
//
// # Profile Configuration
//
// Profiles live in ~/.lockbox/config.yaml:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("home")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
