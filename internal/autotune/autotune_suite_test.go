package autotune_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAutotune(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Autotune Suite")
}
