package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aromera/passport/internal/security/password"
	"github.com/aromera/passport/internal/token"
)

type client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	var v any
	if json.Unmarshal(body, &v) == nil {
		p, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(p))
		return
	}
	if len(body) > 0 {
		fmt.Println(string(body))
		return
	}
	fmt.Printf("status=%d\n", status)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	var (
		baseURL = envOr("PASSPORT_URL", "http://localhost:8080")
		bearer  = envOr("PASSPORT_TOKEN", "")
	)

	root := &cobra.Command{
		Use:   "passportctl",
		Short: "CLI para el servicio de autenticación",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env PASSPORT_URL)")
	root.PersistentFlags().StringVar(&bearer, "token", bearer, "Bearer token (env PASSPORT_TOKEN)")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	syncClient := func() {
		cl.BaseURL = baseURL
		cl.Token = bearer
	}

	// ---- comandos remotos ----

	var regEmail, regPassword, regName string
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Registrar un usuario con email y password",
		RunE: func(cmd *cobra.Command, args []string) error {
			syncClient()
			if regEmail == "" || regPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			payload, _ := json.Marshal(map[string]string{
				"email":     regEmail,
				"password":  regPassword,
				"full_name": regName,
			})
			status, body, err := cl.do("POST", "/register", payload)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("register falló: status=%d", status)
			}
			return nil
		},
	}
	registerCmd.Flags().StringVar(&regEmail, "email", "", "Email del usuario")
	registerCmd.Flags().StringVar(&regPassword, "password", "", "Password del usuario")
	registerCmd.Flags().StringVar(&regName, "name", "", "Nombre completo (opcional)")

	var loginEmail, loginPassword string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Autenticar credenciales y obtener un bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			syncClient()
			if loginEmail == "" || loginPassword == "" {
				return fmt.Errorf("--email y --password son requeridos")
			}
			payload, _ := json.Marshal(map[string]string{
				"email":    loginEmail,
				"password": loginPassword,
			})
			status, body, err := cl.do("POST", "/login", payload)
			if err != nil {
				return err
			}
			cl.print(status, body)
			if status/100 != 2 {
				return fmt.Errorf("login falló: status=%d", status)
			}
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Email del usuario")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password del usuario")

	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Mostrar el usuario detrás del bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			syncClient()
			if cl.Token == "" {
				return fmt.Errorf("falta token (flag --token o env PASSPORT_TOKEN)")
			}
			status, body, err := cl.do("GET", "/me", nil)
			if err != nil {
				return err
			}
			cl.print(status, body)
			return nil
		},
	}

	// ---- comandos locales ----

	var hashCost int
	hashCmd := &cobra.Command{
		Use:   "hash <password>",
		Short: "Hashear un password con bcrypt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := password.Hash(password.Params{Cost: hashCost}, args[0])
			if err != nil {
				return err
			}
			fmt.Println(h)
			return nil
		},
	}
	hashCmd.Flags().IntVar(&hashCost, "cost", 0, "Costo bcrypt (0 = default)")

	var tokSecret, tokAlg, tokSub string
	var tokTTL time.Duration
	tokenCmd := &cobra.Command{Use: "token", Short: "Operaciones locales sobre tokens"}
	tokenCmd.PersistentFlags().StringVar(&tokSecret, "secret", envOr("JWT_SECRET", ""), "Secret de firma (env JWT_SECRET)")
	tokenCmd.PersistentFlags().StringVar(&tokAlg, "alg", envOr("JWT_ALGORITHM", "HS256"), "Algoritmo HMAC (env JWT_ALGORITHM)")

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Emitir un token firmado",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tokSub == "" {
				return fmt.Errorf("--sub es requerido")
			}
			codec, err := token.New(tokSecret, tokAlg, tokTTL)
			if err != nil {
				return err
			}
			signed, exp, err := codec.Issue(tokSub, nil)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			fmt.Fprintf(os.Stderr, "expires_at=%s\n", exp.UTC().Format(time.RFC3339))
			return nil
		},
	}
	issueCmd.Flags().StringVar(&tokSub, "sub", "", "Subject del token (email)")
	issueCmd.Flags().DurationVar(&tokTTL, "ttl", 30*time.Minute, "Vigencia del token")

	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Validar un token y mostrar su subject",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := token.New(tokSecret, tokAlg, time.Minute)
			if err != nil {
				return err
			}
			sub, err := codec.Validate(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("sub=%s\n", sub)
			return nil
		},
	}

	tokenCmd.AddCommand(issueCmd)
	tokenCmd.AddCommand(verifyCmd)

	root.AddCommand(registerCmd)
	root.AddCommand(loginCmd)
	root.AddCommand(meCmd)
	root.AddCommand(hashCmd)
	root.AddCommand(tokenCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
