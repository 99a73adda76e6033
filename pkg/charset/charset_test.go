package charset_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"

	"github.com/FACorreiaa/ledger-import/pkg/charset"
)

func decode(t *testing.T, input []byte) string {
	t.Helper()
	got, err := charset.ReadAll(bytes.NewReader(input))
	require.NoError(t, err)
	return string(got)
}

func TestNewUTF8Reader_UTF8Passthrough(t *testing.T) {
	input := "Descrição;Montante\nCafé;12,50\nOperação;-3,00\n"
	assert.Equal(t, input, decode(t, []byte(input)))
}

func TestNewUTF8Reader_Windows1252(t *testing.T) {
	// ç = 0xE7, ã = 0xE3
	latin1 := []byte{
		'D', 'e', 's', 'c', 'r', 'i', 0xE7, 0xE3, 'o', ';',
		'M', 'o', 'n', 't', 'a', 'n', 't', 'e', '\n',
	}
	assert.Equal(t, "Descrição;Montante\n", decode(t, latin1))
}

func TestNewUTF8Reader_UTF8BOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("date,amount\n")...)
	assert.Equal(t, "date,amount\n", decode(t, input))
}

func TestNewUTF8Reader_UTF16LEWithBOM(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte("Café,1\n"))
	require.NoError(t, err)
	assert.Equal(t, "Café,1\n", decode(t, encoded))
}

func TestNewUTF8Reader_MultibyteAcrossSniffWindow(t *testing.T) {
	// push a two-byte rune across the 4096 byte peek boundary
	input := strings.Repeat("a", 4095) + "é" + "\n"
	assert.Equal(t, input, decode(t, []byte(input)))
}

func TestNewUTF8Reader_Empty(t *testing.T) {
	r, err := charset.NewUTF8Reader(bytes.NewReader(nil))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
