package invoice

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/explorer-hello/ai-invoice-receipt-extractor/internal/extract"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		store       *mockStorage
		acquirer    *mockAcquirer
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		store = newMockStorage()
		acquirer = &mockAcquirer{
			text: "Corner Bakery\nInvoice #: INV-100\nDate: 03/15/2024\nTotal: $3,250.00",
		}
		now := time.Date(2024, time.March, 20, 10, 30, 0, 0, time.UTC)
		service = NewServiceWithDeps(db, store, acquirer, extract.NewExtractor(nil), &fixedTimeSource{now: now})
		server = NewServerWithMux(service, http.NewServeMux())
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleIndex", func() {
		It("should return the dashboard", func() {
			resp, err := http.Get(ghttpServer.URL() + "/")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("Invoice Extractor"))
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp, err := http.Post(ghttpServer.URL()+"/", "text/plain", nil)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
				resp.Body.Close()
			})
		})
	})

	Describe("handleListInvoices", func() {
		When("invoices exist", func() {
			BeforeEach(func() {
				db.invoices[1] = &Invoice{ID: 1, Vendor: "Acme Supplies"}
				db.invoices[2] = &Invoice{ID: 2, Vendor: "City Electric"}
				db.nextID = 2
			})

			It("should return all invoices as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
				var invoices []*Invoice
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &invoices)).NotTo(HaveOccurred())
				Expect(invoices).To(HaveLen(2))
			})
		})

		When("no invoices exist", func() {
			It("should return an empty array", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var invoices []*Invoice
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &invoices)).NotTo(HaveOccurred())
				Expect(invoices).To(BeEmpty())
			})
		})

		When("the database returns an error", func() {
			BeforeEach(func() {
				db.listErr = errors.New("database error")
			})

			It("should return status Internal Server Error", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("Internal server error"))
			})
		})
	})

	Describe("handleUploadInvoice", func() {
		uploadRequest := func(filename string, data []byte) (*http.Response, error) {
			var b bytes.Buffer
			writer := multipart.NewWriter(&b)
			part, err := writer.CreateFormFile("file", filename)
			Expect(err).NotTo(HaveOccurred())
			part.Write(data)
			writer.Close()
			return http.Post(ghttpServer.URL()+"/api/invoices", writer.FormDataContentType(), &b)
		}

		When("upload succeeds", func() {
			It("should return the extracted invoice with status Created", func() {
				resp, err := uploadRequest("receipt.png", []byte("fake image data"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
				var inv Invoice
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &inv)).NotTo(HaveOccurred())
				Expect(inv.ID).To(Equal(int64(1)))
				Expect(inv.Vendor).To(Equal("Corner Bakery"))
				Expect(inv.Amount).To(Equal(3250.00))
				Expect(inv.Category).To(Equal("Food"))
			})
		})

		When("the file type is not supported", func() {
			It("should return status Bad Request", func() {
				resp, err := uploadRequest("notes.txt", []byte("plain text"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("error"))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				var b bytes.Buffer
				writer := multipart.NewWriter(&b)
				writer.Close()

				resp, err := http.Post(ghttpServer.URL()+"/api/invoices", writer.FormDataContentType(), &b)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("No file was provided"))
			})
		})

		When("text acquisition fails", func() {
			BeforeEach(func() {
				acquirer.extractErr = errors.New("recognition failed")
			})

			It("should return status Internal Server Error", func() {
				resp, err := uploadRequest("receipt.png", []byte("fake image data"))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetInvoice", func() {
		BeforeEach(func() {
			db.invoices[1] = &Invoice{ID: 1, Vendor: "Acme Supplies", Amount: 42.50}
			db.nextID = 1
		})

		When("the invoice exists", func() {
			It("should return it as JSON", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/1")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var inv Invoice
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(json.Unmarshal(body, &inv)).NotTo(HaveOccurred())
				Expect(inv.Vendor).To(Equal("Acme Supplies"))
				Expect(inv.Amount).To(Equal(42.50))
			})
		})

		When("the invoice does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/99")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(ContainSubstring("Invoice not found"))
			})
		})

		When("the id is not numeric", func() {
			It("should return status Bad Request", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/abc")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				resp.Body.Close()
			})
		})
	})

	Describe("handleGetInvoiceFile", func() {
		BeforeEach(func() {
			db.invoices[1] = &Invoice{ID: 1, FileName: "stored.png"}
			db.nextID = 1
			store.files["stored.png"] = []byte("image bytes")
		})

		It("should return the stored file with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/invoices/1/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal([]byte("image bytes")))
		})

		When("the invoice does not exist", func() {
			It("should return status Not Found", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/invoices/99/file")
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
				resp.Body.Close()
			})
		})
	})

	Describe("handleCategorySummary", func() {
		BeforeEach(func() {
			db.invoices[1] = &Invoice{ID: 1, Category: "Food", Amount: 10.00}
			db.invoices[2] = &Invoice{ID: 2, Category: "Food", Amount: 15.00}
			db.invoices[3] = &Invoice{ID: 3, Category: "Travel", Amount: 200.00}
			db.nextID = 3
		})

		It("should return aggregate totals per category", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/invoices/summary")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var totals []CategoryTotal
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &totals)).NotTo(HaveOccurred())
			Expect(totals).To(HaveLen(2))
			Expect(totals).To(ContainElement(CategoryTotal{Category: "Food", Total: 25.00, Count: 2}))
			Expect(totals).To(ContainElement(CategoryTotal{Category: "Travel", Total: 200.00, Count: 1}))
		})
	})
})
