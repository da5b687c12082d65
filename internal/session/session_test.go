package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/hetulpatel/lotbidder/internal/storage"
)

func TestCookiesFromStore(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemory()
	assert.NoError(t, blobs.Save(ctx, storage.KeyCookies, []byte(`{"sid":"abc","csrf":"x"}`)))

	acquired := 0
	s := NewStore(blobs, AcquirerFunc(func(context.Context) (CookieSet, error) {
		acquired++
		return CookieSet{"sid": "new"}, nil
	}), nil)

	jar, err := s.Cookies(ctx)
	assert.NoError(t, err)
	check.Equal(t, "abc", jar["sid"])
	check.Equal(t, 0, acquired)
}

func TestCookiesAcquiredAndPersisted(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemory()
	acquired := 0
	s := NewStore(blobs, AcquirerFunc(func(context.Context) (CookieSet, error) {
		acquired++
		return CookieSet{"sid": "fresh"}, nil
	}), nil)

	jar, err := s.Cookies(ctx)
	assert.NoError(t, err)
	check.Equal(t, "fresh", jar["sid"])

	_, err = s.Cookies(ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, acquired)

	blob, ok, err := blobs.Load(ctx, storage.KeyCookies)
	assert.NoError(t, err)
	assert.True(t, ok)
	check.True(t, strings.Contains(string(blob), `"sid": "fresh"`))
}

func TestCookiesCorruptBlobReacquires(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemory()
	assert.NoError(t, blobs.Save(ctx, storage.KeyCookies, []byte(`{not json`)))

	s := NewStore(blobs, AcquirerFunc(func(context.Context) (CookieSet, error) {
		return CookieSet{"sid": "fresh"}, nil
	}), nil)

	jar, err := s.Cookies(ctx)
	assert.NoError(t, err)
	check.Equal(t, "fresh", jar["sid"])
}

func TestCookiesAcquireErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewStore(storage.NewMemory(), nil, nil).Cookies(ctx)
	check.Error(t, err)

	_, err = NewStore(storage.NewMemory(), AcquirerFunc(func(context.Context) (CookieSet, error) {
		return nil, errors.New("login timed out")
	}), nil).Cookies(ctx)
	check.Error(t, err)

	_, err = NewStore(storage.NewMemory(), AcquirerFunc(func(context.Context) (CookieSet, error) {
		return CookieSet{}, nil
	}), nil).Cookies(ctx)
	check.True(t, errors.Is(err, ErrNoCookies))
}

func TestInvalidateDropsSession(t *testing.T) {
	ctx := context.Background()
	blobs := storage.NewMemory()
	n := 0
	s := NewStore(blobs, AcquirerFunc(func(context.Context) (CookieSet, error) {
		n++
		return CookieSet{"sid": strings.Repeat("x", n)}, nil
	}), nil)

	first, err := s.Cookies(ctx)
	assert.NoError(t, err)
	assert.NoError(t, s.Invalidate(ctx))

	_, ok, err := blobs.Load(ctx, storage.KeyCookies)
	assert.NoError(t, err)
	check.False(t, ok)

	second, err := s.Cookies(ctx)
	assert.NoError(t, err)
	check.NotEqual(t, first["sid"], second["sid"])
}

func TestHTTPCookiesSorted(t *testing.T) {
	cookies := CookieSet{"b": "2", "a": "1"}.HTTPCookies()
	assert.Equal(t, 2, len(cookies))
	check.Equal(t, "a", cookies[0].Name)
	check.Equal(t, "2", cookies[1].Value)
}

func TestParseCookieHeader(t *testing.T) {
	jar := ParseCookieHeader("Cookie: sid=abc; csrf=x-1\n")
	check.Equal(t, CookieSet{"sid": "abc", "csrf": "x-1"}, jar)
	check.Equal(t, CookieSet{}, ParseCookieHeader("   "))
}

func TestPromptAcquirer(t *testing.T) {
	var out strings.Builder
	p := NewPromptAcquirer("https://example.test/login", strings.NewReader("\nsid=abc\n"), &out)

	jar, err := p.Acquire(context.Background())
	assert.NoError(t, err)
	check.Equal(t, "abc", jar["sid"])
	check.True(t, strings.Contains(out.String(), "https://example.test/login"))
}

func TestPromptAcquirerEOF(t *testing.T) {
	var out strings.Builder
	p := NewPromptAcquirer("", strings.NewReader(""), &out)
	_, err := p.Acquire(context.Background())
	check.True(t, errors.Is(err, io.EOF))

	_, err = p.Acquire(context.Background())
	check.True(t, errors.Is(err, io.EOF))
}

func TestPromptAcquirerTimeoutThenRetry(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewPromptAcquirer("https://example.test/login", pr, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	_, err := p.Acquire(ctx)
	cancel()
	check.True(t, errors.Is(err, context.DeadlineExceeded))

	// the operator pastes after the first prompt gave up
	go func() { _, _ = pw.Write([]byte("sid=abc\n")) }()

	ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	jar, err := p.Acquire(ctx)
	assert.NoError(t, err)
	check.Equal(t, CookieSet{"sid": "abc"}, jar)
}
