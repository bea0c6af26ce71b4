package objectstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/codex/pkg/helpers"
)

func TestExportPath(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 5, 7, 0, time.FixedZone("WIB", 7*3600))
	p := ExportPath("u1", at)

	assert.Equal(t, "exports/u1/20260301T020507Z.json", p)
	assert.Equal(t, "https://storage.googleapis.com/codex-exports/"+p, helpers.ObjectURL("codex-exports", p))
}
