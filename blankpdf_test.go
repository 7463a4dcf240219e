package javaprint

import (
	"bytes"
	"fmt"
	"strconv"
)

// blankPDF writes a minimal PDF 1.4 file made of count empty pages of the
// given size in points.
func blankPDF(count int, size PageSize) []byte {
	var buf bytes.Buffer
	offsets := make([]int, 0, count+2)

	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	kids := make([]byte, 0, count*8)
	for i := range count {
		if i > 0 {
			kids = append(kids, ' ')
		}
		kids = strconv.AppendInt(kids, int64(i+3), 10)
		kids = append(kids, " 0 R"...)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, count))
	box := fmt.Sprintf("[0 0 %s %s]", formatPoints(size.Width), formatPoints(size.Height))
	for range count {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox " + box + " /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
