package library

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListFindsLocalSongs(t *testing.T) {
	dir := t.TempDir()
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "anthem.bin"), []byte{0}, 0644))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "waltz.bin"), []byte{0}, 0644))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte{0}, 0644))

	l := &Library{Dir: dir}
	assert.ElementsMatch(t, []string{"anthem", "waltz"}, l.List())
}

func TestPathFor(t *testing.T) {
	l := &Library{Dir: "/srv/songs"}
	assert.Equal(t, filepath.Join("/srv/songs", "anthem.bin"), l.PathFor("anthem"))
}

func TestPullWithoutBucketFails(t *testing.T) {
	l := &Library{Dir: t.TempDir()}
	_, err := l.Pull()
	assert.NotNil(t, err)
}

func TestPullFollowsListingPages(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	listCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list-type") == "2" {
			listCalls++
			w.Header().Set("Content-Type", "application/xml")
			if r.URL.Query().Get("continuation-token") == "" {
				fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult><Name>songs</Name><IsTruncated>true</IsTruncated><NextContinuationToken>page2</NextContinuationToken><Contents><Key>first.bin</Key></Contents><Contents><Key>readme.txt</Key></Contents></ListBucketResult>`)
			} else {
				fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult><Name>songs</Name><IsTruncated>false</IsTruncated><Contents><Key>second.bin</Key></Contents></ListBucketResult>`)
			}
			return
		}
		w.Write([]byte{1, 2, 3})
	}))
	defer srv.Close()
	t.Setenv("TACTUS_S3_ENDPOINT", srv.URL)

	dir := t.TempDir()
	l := &Library{Dir: dir, Bucket: "songs"}

	pulled, err := l.Pull()
	assert.Nil(t, err)
	assert.Equal(t, 2, listCalls)
	assert.Equal(t, []string{"first.bin", "second.bin"}, pulled)

	for _, name := range pulled {
		data, err := os.ReadFile(filepath.Join(dir, name))
		assert.Nil(t, err)
		assert.Equal(t, []byte{1, 2, 3}, data)
	}
}
