package auth_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sara-ai/checkin-service/internal/auth"
)

const secret = "s3cr3t"

var _ = Describe("sso authentication", func() {
	Context("token validation", func() {
		It("successfully validates the token", func() {
			sToken, keyFn := generateToken(jwt.MapClaims{
				"sub":         "u-1",
				"email":       "bruce@gothamcity.com",
				"given_name":  "Bruce",
				"family_name": "Wayne",
			})
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.ID).To(Equal("u-1"))
			Expect(user.Email).To(Equal("bruce@gothamcity.com"))
			Expect(user.FirstName).To(Equal("Bruce"))
			Expect(user.LastName).To(Equal("Wayne"))
			Expect(user.IsAdmin()).To(BeFalse())
		})

		It("recognizes admins from the roles claim", func() {
			sToken, keyFn := generateToken(jwt.MapClaims{
				"sub":   "u-2",
				"email": "alfred@gothamcity.com",
				"roles": []string{"employee", "admin"},
			})
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			user, err := authenticator.Authenticate(sToken)
			Expect(err).To(BeNil())
			Expect(user.IsAdmin()).To(BeTrue())
		})

		It("fails to validate the token -- email is missing", func() {
			sToken, keyFn := generateToken(jwt.MapClaims{"sub": "u-1"})
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("fails to validate the token -- subject is missing", func() {
			sToken, keyFn := generateToken(jwt.MapClaims{"email": "bruce@gothamcity.com"})
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})

		It("fails to validate the token -- wrong signing method", func() {
			sToken, keyFn := generateInvalidTokenWrongSigningMethod()
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			_, err = authenticator.Authenticate(sToken)
			Expect(err).ToNot(BeNil())
		})
	})

	Context("middleware", func() {
		It("accepts the bearer header", func() {
			sToken, keyFn := generateToken(jwt.MapClaims{"sub": "u-1", "email": "bruce@gothamcity.com"})
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			h := &handler{}
			ts := httptest.NewServer(authenticator.Authenticator(h))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			Expect(err).To(BeNil())
			req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", sToken))

			resp, rerr := http.DefaultClient.Do(req)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(200))
			Expect(h.user.ID).To(Equal("u-1"))
		})

		It("accepts the token query parameter", func() {
			sToken, keyFn := generateToken(jwt.MapClaims{"sub": "u-1", "email": "bruce@gothamcity.com"})
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			ts := httptest.NewServer(authenticator.Authenticator(&handler{}))
			defer ts.Close()

			resp, rerr := http.Get(fmt.Sprintf("%s/report?token=%s", ts.URL, sToken))
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(200))
		})

		It("rejects a request without token", func() {
			_, keyFn := generateToken(jwt.MapClaims{"sub": "u-1", "email": "bruce@gothamcity.com"})
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			ts := httptest.NewServer(authenticator.Authenticator(&handler{}))
			defer ts.Close()

			resp, rerr := http.Get(ts.URL)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
		})

		It("rejects an invalid token", func() {
			sToken, keyFn := generateInvalidTokenWrongSigningMethod()
			authenticator, err := auth.NewSSOAuthenticatorWithKeyFn(keyFn)
			Expect(err).To(BeNil())

			ts := httptest.NewServer(authenticator.Authenticator(&handler{}))
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			Expect(err).To(BeNil())
			req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", sToken))

			resp, rerr := http.DefaultClient.Do(req)
			Expect(rerr).To(BeNil())
			Expect(resp.StatusCode).To(Equal(401))
		})
	})
})

var _ = Describe("local authentication", func() {
	It("requires a secret", func() {
		_, err := auth.NewLocalAuthenticator("")
		Expect(err).ToNot(BeNil())
	})

	It("accepts a token it generated", func() {
		authenticator, err := auth.NewLocalAuthenticator(secret)
		Expect(err).To(BeNil())

		token, err := auth.GenerateLocalToken(secret, auth.User{ID: "u-1", Email: "jane@example.com", FirstName: "Jane", Admin: true})
		Expect(err).To(BeNil())

		user, err := authenticator.Authenticate(token)
		Expect(err).To(BeNil())
		Expect(user.ID).To(Equal("u-1"))
		Expect(user.FirstName).To(Equal("Jane"))
		Expect(user.IsAdmin()).To(BeTrue())
	})

	It("rejects a token signed with another secret", func() {
		authenticator, err := auth.NewLocalAuthenticator(secret)
		Expect(err).To(BeNil())

		token, err := auth.GenerateLocalToken("other", auth.User{ID: "u-1", Email: "jane@example.com"})
		Expect(err).To(BeNil())

		_, err = authenticator.Authenticate(token)
		Expect(err).ToNot(BeNil())
	})

	It("rejects a token without expiration", func() {
		authenticator, err := auth.NewLocalAuthenticator(secret)
		Expect(err).To(BeNil())

		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1", "email": "jane@example.com"}).SignedString([]byte(secret))
		Expect(err).To(BeNil())

		_, err = authenticator.Authenticate(token)
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("none authentication", func() {
	It("injects the development user", func() {
		authenticator, err := auth.NewNoneAuthenticator()
		Expect(err).To(BeNil())

		h := &handler{}
		rr := httptest.NewRecorder()
		authenticator.Authenticator(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rr.Code).To(Equal(200))
		Expect(h.user.ID).To(Equal("dev-user"))
		Expect(h.user.IsAdmin()).To(BeTrue())
	})
})

type handler struct {
	user auth.User
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.user = auth.MustHaveUser(r.Context())
	w.WriteHeader(200)
}

func generateToken(claims jwt.MapClaims) (string, func(t *jwt.Token) (any, error)) {
	claims["iat"] = jwt.NewNumericDate(time.Now())
	claims["exp"] = jwt.NewNumericDate(time.Now().Add(24 * time.Hour))
	claims["iss"] = "test"

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	Expect(err).To(BeNil())

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	ss, err := token.SignedString(privateKey)
	Expect(err).To(BeNil())

	return ss, func(t *jwt.Token) (any, error) {
		return privateKey.Public(), nil
	}
}

func generateInvalidTokenWrongSigningMethod() (string, func(t *jwt.Token) (any, error)) {
	claims := jwt.MapClaims{
		"sub":   "u-1",
		"email": "bruce@gothamcity.com",
		"iat":   jwt.NewNumericDate(time.Now()),
		"exp":   jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}

	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).To(BeNil())

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	ss, err := token.SignedString(privateKey)
	Expect(err).To(BeNil())

	return ss, func(t *jwt.Token) (any, error) {
		return privateKey.Public(), nil
	}
}
