package device

import (
	"errors"
	"testing"
)

func TestOpenDefault(t *testing.T) {
	dev, err := Open(DefaultConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dev.Close()

	info := dev.Info()
	if info.Name != "hostsim" {
		t.Errorf("Expected name hostsim, got %s", info.Name)
	}

	if info.Version != [3]int{VersionMajor, VersionMinor, VersionBuild} {
		t.Errorf("Unexpected version: %v", info.Version)
	}

	if info.Free != info.Capacity {
		t.Errorf("Fresh device should be empty: free=%d capacity=%d", info.Free, info.Capacity)
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"non-power-of-two alignment", Config{PitchAlignment: 48, Capacity: 1 << 20}},
		{"zero alignment", Config{PitchAlignment: 0, Capacity: 1 << 20}},
		{"no capacity", Config{PitchAlignment: 64, Capacity: 0}},
	}

	for _, test := range tests {
		if _, err := Open(test.cfg); !errors.Is(err, ErrNoDevice) {
			t.Errorf("%s: expected ErrNoDevice, got %v", test.name, err)
		}
	}
}

func TestAlignPitch(t *testing.T) {
	dev, err := Open(Config{PitchAlignment: 64, Capacity: 1 << 20})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dev.Close()

	tests := []struct {
		width, pitch int
	}{
		{1, 64},
		{63, 64},
		{64, 64},
		{65, 128},
		{512, 512},
	}

	for _, test := range tests {
		if got := dev.AlignPitch(test.width); got != test.pitch {
			t.Errorf("AlignPitch(%d) = %d, expected %d", test.width, got, test.pitch)
		}
	}
}

func TestReserveAccounting(t *testing.T) {
	dev, err := Open(Config{PitchAlignment: 64, Capacity: 1024})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer dev.Close()

	data, release, err := dev.Reserve(512)
	if err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if len(data) != 512 {
		t.Errorf("Expected 512 bytes, got %d", len(data))
	}
	if free := dev.Info().Free; free != 512 {
		t.Errorf("Expected 512 free, got %d", free)
	}

	// Exhaustion leaves accounting untouched
	if _, _, err := dev.Reserve(1024); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("Expected ErrOutOfMemory, got %v", err)
	}
	if free := dev.Info().Free; free != 512 {
		t.Errorf("Failed reservation must not leak: free=%d", free)
	}

	release()
	release() // second call is a no-op
	if free := dev.Info().Free; free != 1024 {
		t.Errorf("Expected full capacity back, got %d", free)
	}
}

func TestReserveAfterClose(t *testing.T) {
	dev, err := Open(DefaultConfig())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := dev.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := dev.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("Second close should report ErrClosed, got %v", err)
	}

	if _, _, err := dev.Reserve(64); !errors.Is(err, ErrClosed) {
		t.Errorf("Reserve after close should fail with ErrClosed, got %v", err)
	}
}
