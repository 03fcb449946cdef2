package stream

import "io"

// CountingReader wraps a sequential byte source and tracks how many bytes
// have been consumed through it. One counter is opened per data block so
// nested decodes never share or reset totals across blocks.
type CountingReader struct {
	r     io.Reader
	total int
}

// NewCountingReader returns a counter over r starting at zero.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read forwards to the underlying source and adds whatever was actually
// read to the running total, including on short reads.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.total += n
	return n, err
}

// Total reports the bytes consumed since the counter was opened.
func (c *CountingReader) Total() int {
	return c.total
}

// ReadExact reads exactly n bytes or fails. An EOF before the first byte is
// reported as io.EOF; an EOF mid-field as io.ErrUnexpectedEOF.
func (c *CountingReader) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(c, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadByte reads a single octet.
func (c *CountingReader) ReadByte() (byte, error) {
	buf, err := c.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}
