package bsal

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_parseIEs(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		ies  []ie
		err  error
	}{
		{
			name: "empty",
		},
		{
			name: "too short",
			b:    []byte{0x00},
			err:  errInvalidIE,
		},
		{
			name: "length too long",
			b:    []byte{0x00, 0xff, 0x00},
			err:  errInvalidIE,
		},
		{
			name: "OK one",
			b:    []byte{0x00, 0x03, 'f', 'o', 'o'},
			ies: []ie{{
				ID:   0,
				Data: []byte("foo"),
			}},
		},
		{
			name: "OK three",
			b: []byte{
				0x00, 0x03, 'f', 'o', 'o',
				0x01, 0x00,
				0x02, 0x06, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66,
			},
			ies: []ie{
				{
					ID:   0,
					Data: []byte("foo"),
				},
				{
					ID:   1,
					Data: []byte{},
				},
				{
					ID:   2,
					Data: []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ies, err := parseIEs(tt.b)

			if want, got := tt.err, err; want != got {
				t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
					want, got)
			}
			if err != nil {
				t.Logf("err: %v", err)
				return
			}

			if want, got := tt.ies, ies; !reflect.DeepEqual(want, got) {
				t.Fatalf("unexpected ies:\n- want: %v\n-  got: %v",
					want, got)
			}
		})
	}
}

func Test_marshalIEsTooLong(t *testing.T) {
	_, err := marshalIEs([]ie{{ID: ieSSID, Data: make([]byte, 256)}})
	if want, got := errInvalidIE, err; want != got {
		t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
			want, got)
	}
}

func Test_decodeAssocIEs(t *testing.T) {
	// HT capabilities: 40MHz, dynamic SMPS, two spatial streams.
	ht := make([]byte, 26)
	ht[0] = 1<<1 | 1<<2
	ht[3], ht[4] = 0xff, 0xff

	// VHT capabilities: 160MHz, MU beamformee, three spatial streams
	// supporting MCS 0-9.
	vht := make([]byte, 12)
	vht[0] = 1 << 2
	vht[2] = 1 << 4
	vht[4], vht[5] = 0xea, 0xff

	tests := []struct {
		name string
		ies  []ie
		want ClientCapabilities
		err  error
	}{
		{
			name: "legacy",
			want: ClientCapabilities{
				MaxChannelWidth: 20,
				MaxStreams:      1,
				PHYMode:         phyModeLegacy,
			},
		},
		{
			name: "HT",
			ies: []ie{
				{ID: iePowerCapability, Data: []byte{0x00, 0x14}},
				{ID: ieHTCapabilities, Data: ht},
			},
			want: ClientCapabilities{
				MaxChannelWidth: 40,
				MaxStreams:      2,
				PHYMode:         phyModeHT,
				MaxMCS:          15,
				MaxTxPower:      20,
			},
		},
		{
			name: "VHT",
			ies: []ie{
				{ID: ieHTCapabilities, Data: ht},
				{ID: ieVHTCapabilities, Data: vht},
				{ID: ieSupportedOpClasses, Data: []byte{128, 81, 115}},
			},
			want: ClientCapabilities{
				Band2GHz:        true,
				Band5GHz:        true,
				MaxChannelWidth: 160,
				MaxStreams:      3,
				PHYMode:         phyModeVHT,
				MaxMCS:          15,
				MUMIMO:          true,
			},
		},
		{
			name: "HE 6GHz",
			ies: []ie{
				{ID: ieExtension, Data: []byte{ieExtHECapabilities, 0x00}},
				{ID: ieSupportedOpClasses, Data: []byte{131}},
			},
			want: ClientCapabilities{
				Band6GHz:        true,
				MaxChannelWidth: 20,
				MaxStreams:      1,
				PHYMode:         phyModeHE,
			},
		},
		{
			name: "RRM and BTM",
			ies: []ie{
				{ID: ieRMEnabledCapabilities, Data: []byte{0x73, 0x10, 0x00, 0x00, 0x04}},
				{ID: ieExtendedCapabilities, Data: []byte{0x00, 0x00, 0x08}},
			},
			want: ClientCapabilities{
				BTM:                true,
				RRM:                true,
				RRMLinkMeasurement: true,
				RRMNeighborReport:  true,
				RRMBeaconPassive:   true,
				RRMBeaconActive:    true,
				RRMBeaconTable:     true,
				RRMLCIMeasurement:  true,
				RRMFTMRangeReport:  true,
				MaxChannelWidth:    20,
				MaxStreams:         1,
			},
		},
		{
			name: "short elements skipped",
			ies: []ie{
				{ID: ieHTCapabilities, Data: []byte{0x02}},
				{ID: ieVHTCapabilities, Data: []byte{0x04}},
			},
			want: ClientCapabilities{
				MaxChannelWidth: 20,
				MaxStreams:      1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := marshalIEs(tt.ies)
			if err != nil {
				t.Fatalf("failed to marshal IEs: %v", err)
			}

			got, err := decodeAssocIEs(b)
			if want, got := tt.err, err; want != got {
				t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
					want, got)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected capabilities (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_decodeAssocIEsMalformed(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		want ClientCapabilities
	}{
		{
			name: "truncated first element",
			b:    []byte{ieSSID, 0x04, 'f'},
			want: ClientCapabilities{
				MaxChannelWidth: 20,
				MaxStreams:      1,
			},
		},
		{
			name: "truncated trailing vendor element",
			b: []byte{
				ieRMEnabledCapabilities, 0x05, 0x33, 0x00, 0x00, 0x00, 0x00,
				ieExtendedCapabilities, 0x03, 0x00, 0x00, 0x08,
				221, 0x09, 0x00,
			},
			want: ClientCapabilities{
				BTM:                true,
				RRM:                true,
				RRMLinkMeasurement: true,
				RRMNeighborReport:  true,
				RRMBeaconPassive:   true,
				RRMBeaconActive:    true,
				MaxChannelWidth:    20,
				MaxStreams:         1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeAssocIEs(tt.b)
			if err != errInvalidIE {
				t.Fatalf("unexpected error:\n- want: %v\n-  got: %v",
					errInvalidIE, err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected capabilities (-want +got):\n%s", diff)
			}
		})
	}
}
