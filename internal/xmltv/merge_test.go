package xmltv_test

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"epgmerge/internal/logging"
	"epgmerge/internal/services"
	"epgmerge/internal/xmltv"
)

const (
	payloadA = `<?xml version="1.0" encoding="utf-8"?>
<tv generator-info-name="ripper-a" source-info-url="https://a.example.com">
<channel id="bbc1"><display-name>BBC One</display-name></channel>
<programme start="20260830060000 +0000" stop="20260830070000 +0000" channel="bbc1"><title>Breakfast</title></programme>
</tv>`
	payloadB = `<?xml version="1.0" encoding="utf-8"?>
<tv generator-info-name="ripper-b">
<channel id="bbc1" lang="en"><display-name>BBC 1 HD</display-name></channel>
<programme start="20260830070000 +0000" stop="20260830080000 +0000" channel="bbc1"><title>News</title></programme>
</tv>`
	payloadC = `<?xml version="1.0" encoding="utf-8"?>
<tv>
<channel><display-name>Unnamed</display-name></channel>
<programme start="20260830080000 +0000" stop="20260830090000 +0000" channel="bbc1"><title>Weather</title></programme>
</tv>`
)

func merge(t *testing.T, payloads [][]byte, dedupe bool) (string, xmltv.Stats) {
	t.Helper()
	var buf bytes.Buffer
	stats, err := xmltv.Merge(payloads, &buf, xmltv.Options{DedupeChannels: dedupe})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	return buf.String(), stats
}

func TestMergeDeduplicatesChannelsFirstOccurrenceWins(t *testing.T) {
	out, stats := merge(t, [][]byte{[]byte(payloadA), []byte(payloadB), []byte(payloadC)}, true)

	if got := strings.Count(out, `<channel id="bbc1"`); got != 1 {
		t.Fatalf("expected exactly one bbc1 channel, got %d in:\n%s", got, out)
	}
	if !strings.Contains(out, "BBC One") {
		t.Fatalf("expected payload A's bbc1 to win:\n%s", out)
	}
	if strings.Contains(out, "BBC 1 HD") {
		t.Fatalf("payload B's duplicate channel should be dropped:\n%s", out)
	}
	if !strings.Contains(out, "Unnamed") {
		t.Fatalf("channel without id must always be written:\n%s", out)
	}
	if got := strings.Count(out, "<programme"); got != 3 {
		t.Fatalf("expected all three programmes, got %d:\n%s", got, out)
	}

	if stats.Channels != 2 || stats.DuplicateChannels != 1 || stats.Programmes != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	// A's channel precedes its programme; B contributes only a programme;
	// C's id-less channel comes between B's and C's programmes.
	bbc1 := strings.Index(out, `<channel id="bbc1"`)
	breakfast := strings.Index(out, "Breakfast")
	news := strings.Index(out, "News")
	unnamed := strings.Index(out, "Unnamed")
	weather := strings.Index(out, "Weather")
	if !(bbc1 < breakfast && breakfast < news && news < unnamed && unnamed < weather) {
		t.Fatalf("unexpected element order:\n%s", out)
	}
}

func TestMergeAdoptsFirstRootAttributes(t *testing.T) {
	out, _ := merge(t, [][]byte{[]byte(payloadA), []byte(payloadB)}, true)

	if !strings.Contains(out, `<tv generator-info-name="ripper-a" source-info-url="https://a.example.com">`) {
		t.Fatalf("expected root attrs from first payload in order:\n%s", out)
	}
	if strings.Contains(out, "ripper-b") {
		t.Fatalf("later payloads must not override root attrs:\n%s", out)
	}
}

func TestMergeRootAttributesSkipMalformedFirstPayload(t *testing.T) {
	out, stats := merge(t, [][]byte{[]byte("<tv><broken"), []byte(payloadB)}, true)

	if !strings.Contains(out, `<tv generator-info-name="ripper-b">`) {
		t.Fatalf("expected root attrs from first payload that parses:\n%s", out)
	}
	if stats.ParseFailures != 1 || stats.Parsed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if got := strings.Count(out, "<channel"); got != 1 {
		t.Fatalf("malformed payload must contribute nothing, got %d channels:\n%s", got, out)
	}
}

func TestMergeOutputIsWellFormed(t *testing.T) {
	out, _ := merge(t, [][]byte{[]byte(payloadA), []byte(payloadB), []byte(payloadC)}, true)

	type tv struct {
		XMLName    xml.Name `xml:"tv"`
		Channels   []struct {
			ID string `xml:"id,attr"`
		} `xml:"channel"`
		Programmes []struct {
			Channel string `xml:"channel,attr"`
		} `xml:"programme"`
	}
	var parsed tv
	if err := xml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("merged output is not well-formed XML: %v\n%s", err, out)
	}
	if len(parsed.Channels) != 2 || len(parsed.Programmes) != 3 {
		t.Fatalf("unexpected element counts: %d channels, %d programmes", len(parsed.Channels), len(parsed.Programmes))
	}
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Fatalf("missing XML declaration:\n%s", out)
	}
}

func TestMergeWithoutDedupKeepsDuplicates(t *testing.T) {
	out, stats := merge(t, [][]byte{[]byte(payloadA), []byte(payloadB)}, false)

	if got := strings.Count(out, `<channel id="bbc1"`); got != 2 {
		t.Fatalf("expected both bbc1 channels without dedup, got %d", got)
	}
	if stats.DuplicateChannels != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMergeIdenticalIdlessChannelsAllKept(t *testing.T) {
	payload := `<tv><channel><display-name>Twin</display-name></channel><channel><display-name>Twin</display-name></channel></tv>`
	out, stats := merge(t, [][]byte{[]byte(payload), []byte(payload)}, true)

	if got := strings.Count(out, "Twin"); got != 4 {
		t.Fatalf("expected all four id-less channels, got %d:\n%s", got, out)
	}
	if stats.Channels != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMergeEmptyIdNeverDeduplicated(t *testing.T) {
	payload := `<tv><channel id=""><display-name>Blank</display-name></channel><channel id=""><display-name>Blank</display-name></channel></tv>`
	out, _ := merge(t, [][]byte{[]byte(payload)}, true)

	if got := strings.Count(out, "Blank"); got != 2 {
		t.Fatalf("empty ids must not be deduplicated, got %d occurrences:\n%s", got, out)
	}
}

func TestMergeAllPayloadsMalformedProducesEmptyDocument(t *testing.T) {
	out, stats := merge(t, [][]byte{[]byte("garbage"), []byte("<tv><oops")}, true)

	want := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<tv>\n</tv>\n"
	if out != want {
		t.Fatalf("expected empty-bodied document, got:\n%s", out)
	}
	if stats.Parsed != 0 || stats.ParseFailures != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMergeNoPayloads(t *testing.T) {
	out, stats := merge(t, nil, true)
	want := "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<tv>\n</tv>\n"
	if out != want {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if stats.Payloads != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	payloads := [][]byte{[]byte(payloadA), []byte(payloadB), []byte(payloadC)}
	first, _ := merge(t, payloads, true)
	second, _ := merge(t, payloads, true)
	if first != second {
		t.Fatal("expected byte-identical output across runs")
	}
}

func TestMergePreservesElementContentVerbatim(t *testing.T) {
	payload := `<tv><channel id="x"><display-name lang="de">Kanal &amp; mehr</display-name><icon src="https://example.com/x.png"/></channel></tv>`
	out, _ := merge(t, [][]byte{[]byte(payload)}, true)

	if !strings.Contains(out, `<display-name lang="de">Kanal &amp; mehr</display-name><icon src="https://example.com/x.png"/>`) {
		t.Fatalf("descendants must be preserved verbatim:\n%s", out)
	}
}

func TestMergeDecodesDeclaredCharset(t *testing.T) {
	latin := append([]byte(`<?xml version="1.0" encoding="iso-8859-1"?><tv><channel id="fr1"><display-name>T`), 0xE9)
	latin = append(latin, []byte(`l</display-name></channel></tv>`)...)

	out, stats := merge(t, [][]byte{latin}, true)
	if stats.Parsed != 1 {
		t.Fatalf("expected latin-1 payload to parse: %+v", stats)
	}
	if !strings.Contains(out, "Tél") {
		t.Fatalf("expected UTF-8 re-encoded content:\n%s", out)
	}
}

func TestMergeTagsParseFailuresInLog(t *testing.T) {
	var logBuf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &logBuf})
	if err != nil {
		t.Fatalf("building logger: %v", err)
	}

	var out bytes.Buffer
	stats, err := xmltv.Merge([][]byte{[]byte("<tv><oops")}, &out, xmltv.Options{
		DedupeChannels: true,
		Logger:         logger,
	})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if stats.ParseFailures != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if !strings.Contains(logBuf.String(), services.ErrParse.Error()) {
		t.Fatalf("skipped-payload log line must carry the parse marker: %q", logBuf.String())
	}
}

type failingWriter struct {
	after int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("disk full")
	}
	w.after--
	return len(p), nil
}

func TestMergeReportsWriteFailure(t *testing.T) {
	_, err := xmltv.Merge([][]byte{[]byte(payloadA)}, &failingWriter{after: 1}, xmltv.Options{DedupeChannels: true})
	if err == nil {
		t.Fatal("expected write error")
	}
	if !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
}
