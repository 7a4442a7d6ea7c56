package devices

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

const codebookCSV = `code,code_description,value,value_description,product_type
switch,Turns the device on or off,true/false,Boolean on state,1G
countdown,Countdown timer in seconds,0-86400,Seconds until switch off,1G
switch_1,Turns gang 1 on or off,true/false,Boolean on state,3G
control,Curtain direction,open/stop/close,Controls the direction of the curtains,CUR
`

func TestReadCodebook(t *testing.T) {
	t.Parallel()

	cb, err := ReadCodebook(strings.NewReader(codebookCSV))
	if err != nil {
		t.Fatalf("ReadCodebook: %v", err)
	}

	descs := cb.Descriptions("1G")
	if len(descs) != 2 {
		t.Fatalf("expected 2 descriptions for 1G, got %d", len(descs))
	}
	if !strings.Contains(descs[0], `Code "switch"`) {
		t.Errorf("unexpected description: %s", descs[0])
	}
	if got := cb.Descriptions("nope"); got != nil && len(got) != 0 {
		t.Errorf("unknown product type should yield no descriptions, got %v", got)
	}

	codes := cb.CodeDescriptions()
	if codes["control"] != "Curtain direction" {
		t.Errorf("CodeDescriptions()[control] = %q", codes["control"])
	}
}

func TestReadCodebookBadHeader(t *testing.T) {
	t.Parallel()

	_, err := ReadCodebook(strings.NewReader("a,b,c,d,e\n"))
	if err == nil {
		t.Fatal("expected error for bad header")
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	dir := []Device{
		{UUID: "1", Name: "Kitchen Light"},
		{UUID: "2", Name: "Bedroom Light"},
		{UUID: "3", Name: "Living Room Curtain"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "substring match", query: "kitchen", want: []string{"Kitchen Light"}},
		{name: "small typo", query: "kitchen lite", want: []string{"Kitchen Light"}},
		{name: "no plausible match", query: "television", want: nil},
		{name: "empty query", query: "", want: nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Suggest(tc.query, dir)
			if len(got) == 0 && len(tc.want) == 0 {
				return
			}
			if len(got) == 0 || got[0] != tc.want[0] {
				t.Errorf("Suggest(%q) = %v, want first %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestListingKeepsSubspaceName(t *testing.T) {
	t.Parallel()

	dir := []Device{
		{UUID: "1", Name: "Kitchen Light", ProductType: "1G",
			Subspace: Subspace{UUID: "sub-1", Name: "Kitchen"}, Tag: "ceiling"},
		{UUID: "2", Name: "Curtain", ProductType: "CUR"},
	}
	listing := Listing(dir)
	if listing[0]["subspace"] != "Kitchen" {
		t.Errorf("subspace = %q, want Kitchen", listing[0]["subspace"])
	}
	if _, ok := listing[1]["subspace"]; ok {
		t.Error("unassigned device should carry no subspace entry")
	}
}

type fakeLister struct {
	devices    []Device
	scenes     []Scene
	err        error
	deviceCall int
	sceneCall  int
}

func (f *fakeLister) ListDevices(context.Context) ([]Device, error) {
	f.deviceCall++
	return f.devices, f.err
}

func (f *fakeLister) ListScenes(context.Context) ([]Scene, error) {
	f.sceneCall++
	return f.scenes, f.err
}

func TestCacheServesFresh(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{devices: []Device{{UUID: "1", Name: "Lamp"}}}
	cache := NewCache(lister, time.Minute)

	for range 3 {
		devs, err := cache.ListDevices(context.Background())
		if err != nil {
			t.Fatalf("ListDevices: %v", err)
		}
		if len(devs) != 1 || devs[0].Name != "Lamp" {
			t.Fatalf("unexpected devices: %v", devs)
		}
	}
	if lister.deviceCall != 1 {
		t.Errorf("expected 1 backend call, got %d", lister.deviceCall)
	}
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{scenes: []Scene{{UUID: "s1", Name: "Movie Night"}}}
	cache := NewCache(lister, time.Minute)

	if _, err := cache.ListScenes(context.Background()); err != nil {
		t.Fatalf("ListScenes: %v", err)
	}
	cache.Invalidate()
	if _, err := cache.ListScenes(context.Background()); err != nil {
		t.Fatalf("ListScenes: %v", err)
	}
	if lister.sceneCall != 2 {
		t.Errorf("expected 2 backend calls after invalidate, got %d", lister.sceneCall)
	}
}

func TestCachePropagatesErrors(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{err: errors.New("backend down")}
	cache := NewCache(lister, time.Minute)

	if _, err := cache.ListDevices(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := cache.ListDevices(context.Background()); err == nil {
		t.Fatal("errors must not be cached")
	}
	if lister.deviceCall != 2 {
		t.Errorf("expected 2 backend calls, got %d", lister.deviceCall)
	}
}

func TestByUUID(t *testing.T) {
	t.Parallel()

	dir := []Device{{UUID: "a", Name: "Lamp"}, {UUID: "b", Name: "Fan"}}
	if d, ok := ByUUID(dir, "b"); !ok || d.Name != "Fan" {
		t.Errorf("ByUUID(b) = %+v, %v", d, ok)
	}
	if _, ok := ByUUID(dir, "z"); ok {
		t.Error("ByUUID(z) should not match")
	}
}
