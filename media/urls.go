package media

import (
	"fmt"
	"strings"
)

// PlayerBaseURL is the Azure Media Player demo page used to try out published streams.
const PlayerBaseURL = "https://ampdemo.azureedge.net/"

// EndpointURL joins a streaming endpoint host name and a locator path into an https URL.
func EndpointURL(host, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "https://" + host + path
}

// FirstPath returns the first path published for protocol, or false if none is.
func FirstPath(paths []StreamingPath, protocol string) (string, bool) {
	for _, p := range paths {
		if strings.EqualFold(p.Protocol, protocol) && len(p.Paths) > 0 {
			return p.Paths[0], true
		}
	}
	return "", false
}

// AESPlayerURL builds a player link that presents token to key delivery as a Bearer token.
func AESPlayerURL(manifestURL, token string) string {
	return fmt.Sprintf("%s?url=%s&aes=true&aestoken=Bearer%%3D%s", PlayerBaseURL, manifestURL, token)
}

// LowLatencyPlayerURL builds a player link using the low latency heuristic profile.
func LowLatencyPlayerURL(manifestURL string) string {
	return fmt.Sprintf("%s?url=%s&heuristicprofile=lowlatency", PlayerBaseURL, manifestURL)
}
