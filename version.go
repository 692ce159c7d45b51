package narrator

// Version is the release of the module. Builds override it with
// -ldflags "-X github.com/aretw0/narrator.Version=...".
var Version = "0.1.0-dev"
