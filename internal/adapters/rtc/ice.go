// Package rtc holds the WebRTC settings handed to browsers. Media itself
// flows peer to peer and never reaches this server.
package rtc

import (
	"strings"

	"github.com/dkeye/Duet/internal/config"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

func DefaultICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{
			URLs: []string{"stun:stun.l.google.com:19302"},
		},
	}
}

// ICEServers converts configured servers to pion's type, which is also the
// JSON shape RTCPeerConnection expects. Entries without a stun:, turn: or
// turns: URL are skipped.
func ICEServers(cfg []config.ICEServer) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(cfg))
	for _, s := range cfg {
		urls := make([]string, 0, len(s.URLs))
		for _, u := range s.URLs {
			if validScheme(u) {
				urls = append(urls, u)
				continue
			}
			log.Warn().Str("module", "rtc").Str("url", u).Msg("ignoring ICE url with unknown scheme")
		}
		if len(urls) == 0 {
			continue
		}
		srv := webrtc.ICEServer{URLs: urls, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
		}
		out = append(out, srv)
	}
	if len(out) == 0 {
		return DefaultICEServers()
	}
	return out
}

func validScheme(u string) bool {
	for _, p := range []string{"stun:", "turn:", "turns:"} {
		if strings.HasPrefix(u, p) {
			return true
		}
	}
	return false
}
