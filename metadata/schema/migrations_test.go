package schema

import (
	"reflect"
	"testing"
)

func TestVersions(t *testing.T) {
	versions, err := Versions()
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if want := []uint{1, 2}; !reflect.DeepEqual(versions, want) {
		t.Errorf("versions = %v, want %v", versions, want)
	}
}
