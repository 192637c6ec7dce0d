package domain

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want NameParts
	}{
		{
			name: "upstream name",
			in:   "pg-vmdb",
			want: NameParts{Database: "pg", Version: "upstream", Category: "vmdb"},
		},
		{
			name: "downstream name",
			in:   "pg-5.2-vmdb",
			want: NameParts{Database: "pg", Version: "5.2.x", Category: "vmdb"},
		},
		{
			name: "underscores in version become dots",
			in:   "pg-5_3-vmdb_metrics",
			want: NameParts{Database: "pg", Version: "5.3.x", Category: "vmdb_metrics"},
		},
		{
			name: "trailing segments are joined into the category",
			in:   "mysql-5.2-vmdb-extra",
			want: NameParts{Database: "mysql", Version: "5.2.x", Category: "vmdb-extra"},
		},
		{
			name: "upstream brakeman",
			in:   "pg-brakeman",
			want: NameParts{Database: "pg", Version: "upstream", Category: "brakeman"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseName_Malformed(t *testing.T) {
	for _, in := range []string{"", "pgvmdb"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseName(in)
			assert.ErrorIs(t, err, ErrMalformedName)
		})
	}
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "f8005837", ShortSHA("f80058377a5b0d2203010aa6d430fd0686063b9e"))
	assert.Equal(t, "555aaa", ShortSHA("555aaa"))
	assert.Equal(t, "", ShortSHA(""))

	// Multibyte labels are cut on character boundaries
	short := ShortSHA("aüüüüüüüüü")
	assert.Equal(t, "aüüüüüüü", short)
	assert.True(t, utf8.ValidString(short))
	assert.Equal(t, "aüüüüü", ShortSHA("aüüüüü"))
}

func TestNewProject(t *testing.T) {
	serverID := uuid.New()
	p := NewProject("pg-vmdb", serverID)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, "pg-vmdb", p.Name)
	assert.Equal(t, serverID, p.ServerID)
	assert.True(t, p.IncludedInStatus)
}

func TestProject_LastBuiltStr(t *testing.T) {
	p := &Project{}
	assert.Equal(t, "", p.LastBuiltStr())

	built := time.Date(2014, 3, 21, 17, 12, 36, 0, time.UTC)
	p.LastBuilt = &built
	assert.Equal(t, "2014-03-21 17:12:36 +0000", p.LastBuiltStr())
}
