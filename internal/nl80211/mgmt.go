// Package nl80211 holds 802.11 management frame values used with nl80211
// which golang.org/x/sys/unix does not define.
package nl80211

// Management frame subtypes, as carried in NL80211_ATTR_MGMT_SUBTYPE.
const (
	SubtypeAssocReq   = 0x0
	SubtypeReassocReq = 0x2
	SubtypeProbeReq   = 0x4
	SubtypeDisassoc   = 0xa
	SubtypeAuth       = 0xb
	SubtypeDeauth     = 0xc
	SubtypeAction     = 0xd
)

// DefaultNoise is the noise floor in dBm assumed when no channel survey is
// available.
const DefaultNoise = -95

// FrameTypeAction is the NL80211_ATTR_FRAME_TYPE of action frames: the
// management type with the action subtype.
const FrameTypeAction = SubtypeAction << 4
