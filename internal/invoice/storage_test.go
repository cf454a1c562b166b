package invoice

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		It("writes the file and returns its stored name", func() {
			name, err := storage.Save("20240320_103000_test.png", []byte("file content"))
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("20240320_103000_test.png"))
			Expect(filepath.Join(tmpDir, name)).To(BeAnExistingFile())
		})
	})

	Describe("Get", func() {
		When("the file exists", func() {
			BeforeEach(func() {
				_, err := storage.Save("test.png", []byte("file content"))
				Expect(err).NotTo(HaveOccurred())
			})

			It("returns the file data", func() {
				data, err := storage.Get("test.png")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("file content"))
			})
		})

		When("the file does not exist", func() {
			It("returns an error", func() {
				_, err := storage.Get("missing.png")
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Delete", func() {
		BeforeEach(func() {
			_, err := storage.Save("test.png", []byte("file content"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("removes the file", func() {
			Expect(storage.Delete("test.png")).To(Succeed())
			Expect(filepath.Join(tmpDir, "test.png")).NotTo(BeAnExistingFile())
		})

		It("errors when the file is already gone", func() {
			Expect(storage.Delete("test.png")).To(Succeed())
			Expect(storage.Delete("test.png")).To(HaveOccurred())
		})
	})

	Describe("Path", func() {
		It("joins the base path with the stored name", func() {
			Expect(storage.Path("test.png")).To(Equal(filepath.Join(tmpDir, "test.png")))
		})
	})
})
