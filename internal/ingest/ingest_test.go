package ingest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("splitParagraphs", func() {
	DescribeTable("applies the normalize/split/collapse/filter pipeline",
		func(pageText string, expected []string) {
			Expect(splitParagraphs(pageText)).To(Equal(expected))
		},
		Entry("single long paragraph kept",
			"This is a long enough paragraph to survive the fifty character minimum length filter easily.",
			[]string{"This is a long enough paragraph to survive the fifty character minimum length filter easily."},
		),
		Entry("short header and footer dropped, body kept",
			"Page 1\n\nThis is the actual body content of the page and it is long enough to clear the filter threshold.\n\nFooter text",
			[]string{"This is the actual body content of the page and it is long enough to clear the filter threshold."},
		),
		Entry("intra-paragraph newlines collapsed to spaces",
			"This paragraph\nwraps across\nseveral lines but should become one line that is long enough to pass the filter.",
			[]string{"This paragraph wraps across several lines but should become one line that is long enough to pass the filter."},
		),
		Entry("multi-space runs collapsed to one space",
			"This    paragraph   has  irregular    spacing but is still long enough to pass the fifty character filter.",
			[]string{"This paragraph has irregular spacing but is still long enough to pass the fifty character filter."},
		),
		Entry("CRLF line endings normalized before splitting",
			"This paragraph uses CRLF line endings\r\nacross several lines and is long enough to pass the filter.",
			[]string{"This paragraph uses CRLF line endings across several lines and is long enough to pass the filter."},
		),
		Entry("all-short page yields no paragraphs",
			"Hi\n\nBye\n\nOK",
			nil,
		),
	)
})
