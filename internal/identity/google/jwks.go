package google

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"
)

type discoveryDoc struct {
	Issuer        string `json:"issuer"`
	AuthEndpoint  string `json:"authorization_endpoint"`
	TokenEndpoint string `json:"token_endpoint"`
	JWKSURI       string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// discovery devuelve el discovery document cacheado, o lo re-fetchea si está
// viejo. El singleflight evita que N verificaciones concurrentes disparen N
// fetches cuando el cache expira.
func (v *Verifier) discovery(ctx context.Context) (*discoveryDoc, error) {
	v.mu.RLock()
	disc := v.disc
	stale := time.Since(v.discAt) > discoveryTTL
	v.mu.RUnlock()
	if disc != nil && !stale {
		return disc, nil
	}

	out, err, _ := v.sf.Do("discovery", func() (any, error) {
		req, _ := http.NewRequestWithContext(ctx, "GET", v.discoveryURL, nil)
		resp, err := v.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("discovery http %d", resp.StatusCode)
		}
		var dd discoveryDoc
		if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
			return nil, err
		}
		v.mu.Lock()
		v.disc = &dd
		v.discAt = time.Now()
		v.mu.Unlock()
		return &dd, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*discoveryDoc), nil
}

// getJWKS devuelve el JWKS cacheado o lo refresca. Usa If-None-Match para
// aprovechar el ETag que publica Google.
func (v *Verifier) getJWKS(ctx context.Context, uri string) (*jwks, error) {
	v.mu.RLock()
	j := v.keys
	age := time.Since(v.keysAt)
	v.mu.RUnlock()
	if j != nil && age < jwksTTL {
		return j, nil
	}

	out, err, _ := v.sf.Do("jwks", func() (any, error) {
		req, _ := http.NewRequestWithContext(ctx, "GET", uri, nil)
		v.mu.RLock()
		etag := v.keysETag
		v.mu.RUnlock()
		if etag != "" {
			req.Header.Set("If-None-Match", etag)
		}
		resp, err := v.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotModified {
			v.mu.Lock()
			cached := v.keys
			v.keysAt = time.Now()
			v.mu.Unlock()
			return cached, nil
		}

		if resp.StatusCode/100 != 2 {
			return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
		}
		var jj jwks
		if err := json.NewDecoder(resp.Body).Decode(&jj); err != nil {
			return nil, err
		}

		v.mu.Lock()
		v.keys = &jj
		v.keysAt = time.Now()
		v.keysETag = resp.Header.Get("ETag")
		v.mu.Unlock()
		return &jj, nil
	})
	if err != nil {
		return nil, err
	}
	return out.(*jwks), nil
}

// rsaKeyForKid resuelve la clave pública RSA para el kid del header.
func (v *Verifier) rsaKeyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	disc, err := v.discovery(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := v.getJWKS(ctx, disc.JWKSURI)
	if err != nil {
		return nil, err
	}
	for _, k := range keys.Keys {
		if k.Kid == kid && strings.EqualFold(k.Kty, "RSA") {
			nb, err := base64.RawURLEncoding.DecodeString(k.N)
			if err != nil {
				return nil, err
			}
			eb, err := base64.RawURLEncoding.DecodeString(k.E)
			if err != nil {
				return nil, err
			}
			n := new(big.Int).SetBytes(nb)
			e := 65537
			if len(eb) > 0 {
				e = 0
				for _, b := range eb {
					e = (e << 8) | int(b)
				}
			}
			return &rsa.PublicKey{N: n, E: e}, nil
		}
	}
	return nil, errors.New("kid not found")
}
