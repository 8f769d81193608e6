package spine

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"
)

// NumFields is the number of columns of a spine line:
// id word pos template head att_position att_type.
const NumFields = 7

// ParseLine parses one spine line. The returned error is a
// *MalformedRecordError with Line unset.
func ParseLine(line string) (Spine, error) {
	f := strings.Fields(line)
	bad := func(reason string) (Spine, error) {
		return Spine{}, &MalformedRecordError{Text: line, Reason: reason}
	}
	if len(f) != NumFields {
		return bad("expected " + strconv.Itoa(NumFields) + " fields, got " + strconv.Itoa(len(f)))
	}
	id, err := strconv.Atoi(f[0])
	if err != nil {
		return bad("id is not an integer")
	}
	head, err := strconv.Atoi(f[4])
	if err != nil {
		return bad("head is not an integer")
	}
	att, err := strconv.Atoi(f[5])
	if err != nil {
		return bad("att_position is not an integer")
	}
	typ, ok := ParseAttachmentType(f[6])
	if !ok {
		return bad("att_type must be s or r")
	}
	if id < 1 {
		return bad("id must be positive")
	}
	if head < 0 {
		return bad("head must not be negative")
	}
	return Spine{
		ID:          id,
		Word:        f[1],
		POS:         f[2],
		Template:    f[3],
		Head:        head,
		AttPosition: att,
		AttType:     typ,
	}, nil
}

// Reader reads blank-line separated sentence blocks. Lines starting with
// '#' are comments.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next sentence, or io.EOF when the input is exhausted.
// A malformed line fails the whole sentence.
func (r *Reader) Next() (Sentence, error) {
	var sent Sentence
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			if len(sent) > 0 {
				return sent, nil
			}
			continue
		}
		if text[0] == '#' {
			continue
		}
		sp, err := ParseLine(text)
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.Line = r.line
			}
			r.skipBlock()
			return nil, err
		}
		sent = append(sent, sp)
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	if len(sent) > 0 {
		return sent, nil
	}
	return nil, io.EOF
}

// skipBlock consumes the rest of the current sentence so the next call to
// Next starts at the following block.
func (r *Reader) skipBlock() {
	for r.scanner.Scan() {
		r.line++
		if strings.TrimSpace(r.scanner.Text()) == "" {
			return
		}
	}
}

// ReadAll reads every sentence from r.
func ReadAll(r io.Reader) ([]Sentence, error) {
	rd := NewReader(r)
	var out []Sentence
	for {
		s, err := rd.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
}

// Writer writes sentences as tab-separated blocks sorted by id, each
// followed by a blank line.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(s Sentence) error {
	for _, sp := range s.Sorted() {
		if _, err := w.w.WriteString(sp.String()); err != nil {
			return err
		}
		if err := w.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) Flush() error { return w.w.Flush() }

// WriteAll writes sentences to w and flushes.
func WriteAll(w io.Writer, sentences []Sentence) error {
	sw := NewWriter(w)
	for _, s := range sentences {
		if err := sw.Write(s); err != nil {
			return err
		}
	}
	return sw.Flush()
}
