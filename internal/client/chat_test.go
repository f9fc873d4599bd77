package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sara-ai/checkin-service/internal/client"
)

var _ = Describe("chat client", func() {
	var (
		ctx     context.Context
		request client.ChatRequest
	)

	BeforeEach(func() {
		ctx = context.Background()
		request = client.ChatRequest{
			Model:       "llama-3.3-70b-versatile",
			Messages:    []client.ChatMessage{{Role: "user", Content: "hello"}},
			Temperature: 0.7,
			MaxTokens:   800,
		}
	})

	Describe("NewChatClient", func() {
		It("reports whether an api key is set", func() {
			Expect(client.NewChatClient("http://localhost", "", 0).Configured()).To(BeFalse())
			Expect(client.NewChatClient("http://localhost", "key", 0).Configured()).To(BeTrue())
		})
	})

	Describe("Complete", func() {
		It("returns the first choice", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Method).To(Equal(http.MethodPost))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer key"))
				Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

				var got client.ChatRequest
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				Expect(got.Model).To(Equal("llama-3.3-70b-versatile"))
				Expect(got.MaxTokens).To(Equal(800))

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "  SUMMARY: fine  "}}]}`))
			}))
			defer server.Close()

			content, err := client.NewChatClient(server.URL, "key", 5*time.Second).Complete(ctx, request)
			Expect(err).To(BeNil())
			Expect(content).To(Equal("SUMMARY: fine"))
		})

		DescribeTable("classifies error statuses",
			func(status int, transient bool) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(status)
					_, _ = w.Write([]byte(`{"error": "nope"}`))
				}))
				defer server.Close()

				_, err := client.NewChatClient(server.URL, "key", 5*time.Second).Complete(ctx, request)
				var statusErr *client.StatusError
				Expect(errors.As(err, &statusErr)).To(BeTrue())
				Expect(statusErr.StatusCode).To(Equal(status))
				Expect(statusErr.Transient()).To(Equal(transient))
			},
			Entry("rate limited", http.StatusTooManyRequests, true),
			Entry("server error", http.StatusBadGateway, true),
			Entry("unauthorized", http.StatusUnauthorized, false),
			Entry("bad request", http.StatusBadRequest, false),
		)

		It("fails on an answer without choices", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"choices": []}`))
			}))
			defer server.Close()

			_, err := client.NewChatClient(server.URL, "key", 5*time.Second).Complete(ctx, request)
			Expect(err).To(Equal(client.ErrEmptyCompletion))
		})

		It("times out slow servers", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			}))
			defer server.Close()

			_, err := client.NewChatClient(server.URL, "key", 20*time.Millisecond).Complete(ctx, request)
			Expect(err).ToNot(BeNil())
		})
	})
})
