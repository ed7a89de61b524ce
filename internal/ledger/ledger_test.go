package ledger_test

import (
	"context"

	"coursesynth.app/api/internal/ledger"
	"coursesynth.app/api/internal/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Ledger.Log", func() {
	It("rejects an action outside the closed vocabulary before touching storage", func() {
		l := ledger.New(nil)
		err := l.Log(context.Background(), 1, model.UsageAction("not_a_real_action"), nil, nil, nil)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid action"))
	})
})
