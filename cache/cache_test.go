package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	calls := 0
	loader := func(key string) ([]string, error) {
		calls++
		return []string{key}, nil
	}

	v, err := Load("suite.txt", loader)
	is.NoErr(err)
	is.Equal(v, []string{"suite.txt"})
	v, err = Load("suite.txt", loader)
	is.NoErr(err)
	is.Equal(v, []string{"suite.txt"})
	is.Equal(calls, 1)

	Evict("suite.txt")
	_, err = Load("suite.txt", loader)
	is.NoErr(err)
	is.Equal(calls, 2)
}

func TestFailedLoadNotCached(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	boom := errors.New("boom")
	_, err := Load("x", func(string) (int, error) { return 0, boom })
	is.True(errors.Is(err, boom))

	v, err := Load("x", func(string) (int, error) { return 4, nil })
	is.NoErr(err)
	is.Equal(v, 4)
}
