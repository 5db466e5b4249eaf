package urlpattern

import (
	"errors"
	"reflect"
	"testing"

	"fetchkit/internal/errs"
)

func TestExpandIntegerRange(t *testing.T) {
	got, err := Expand("http://host/file[[1-3]].zip")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"http://host/file1.zip", "http://host/file2.zip", "http://host/file3.zip"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpandCharacterRange(t *testing.T) {
	got, err := Expand("http://host/part-[[a-c]].bin")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"http://host/part-a.bin", "http://host/part-b.bin", "http://host/part-c.bin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExpandNoPattern(t *testing.T) {
	got, err := Expand("http://host/plain.bin")
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"http://host/plain.bin"}) {
		t.Fatalf("got %v", got)
	}
}

func TestExpandMultipleGroupsRejected(t *testing.T) {
	_, err := Expand("http://host/[[1-2]]/[[a-b]].bin")
	if !errors.Is(err, errs.UserInputError) {
		t.Fatalf("expected UserInputError, got %v", err)
	}
}

func TestExpandInvalidPattern(t *testing.T) {
	_, err := Expand("http://host/file[[3-1]].bin")
	if !errors.Is(err, errs.UserInputError) {
		t.Fatalf("expected UserInputError for descending range, got %v", err)
	}
}
