package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dasmlab/ailocalize/pkg/plugin"
	"github.com/dasmlab/ailocalize/pkg/server"
	"github.com/dasmlab/ailocalize/pkg/service"
)

var (
	serverAddr string
	timeout    time.Duration
	sourceLang string
	targetLang string
	collection string

	logger = logrus.New()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "testclient",
		Short: "Exercise the AI localization endpoints of a running server",
		Long: `testclient sends requests to a running AI localization server and
prints the results.

Commands:
  bulk        Translate every configured field of a document
  field       Translate one field of a document
  languages   List the host's supported languages
  doc         Show a document in a locale`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8080", "Server base URL")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Request timeout")

	root.AddCommand(
		newBulkCmd(),
		newFieldCmd(),
		newLanguagesCmd(),
		newDocCmd(),
	)

	return root
}

func main() {
	logger.SetLevel(logrus.InfoLevel)

	if err := newRootCmd().Execute(); err != nil {
		logger.WithError(err).Error("Request failed")
		os.Exit(1)
	}
}

func addLocaleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&collection, "collection", "posts", "Collection slug")
	cmd.Flags().StringVar(&sourceLang, "source", "en", "Source locale code")
	cmd.Flags().StringVar(&targetLang, "target", "de", "Target locale code")
}

func newBulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk <doc-id>",
		Short: "Translate every configured field of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(cmd.Context(), http.MethodPost, plugin.TranslateBulkPath, service.BulkRequest{
				DocID:        args[0],
				Collection:   collection,
				SourceLocale: sourceLang,
				TargetLocale: targetLang,
			})
			if err != nil {
				return err
			}

			printHeader("BULK TRANSLATION RESULTS")
			fmt.Println(gjson.GetBytes(body, "message").String())
			for _, name := range gjson.GetBytes(body, "translatedFields").Array() {
				printSection(strings.ToUpper(name.String()))
				fmt.Println(gjson.GetBytes(body, "translatedContent."+gjson.Escape(name.String())).String())
			}
			printFooter()
			return nil
		},
	}
	addLocaleFlags(cmd)
	return cmd
}

func newFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field <doc-id> <field-name>",
		Short: "Translate one field of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(cmd.Context(), http.MethodPost, plugin.TranslateFieldPath, service.FieldRequest{
				DocID:        args[0],
				Collection:   collection,
				FieldName:    args[1],
				SourceLocale: sourceLang,
				TargetLocale: targetLang,
			})
			if err != nil {
				return err
			}

			printHeader("FIELD TRANSLATION RESULTS")
			fmt.Println(gjson.GetBytes(body, "message").String())
			printSection("TRANSLATED CONTENT:")
			fmt.Println(gjson.GetBytes(body, "translatedContent|@pretty").String())
			printFooter()
			return nil
		},
	}
	addLocaleFlags(cmd)
	return cmd
}

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the host's supported languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(cmd.Context(), http.MethodGet, plugin.SupportedLanguagesPath, nil)
			if err != nil {
				return err
			}

			def := gjson.GetBytes(body, "defaultLocale").String()
			gjson.GetBytes(body, "languages").ForEach(func(_, lang gjson.Result) bool {
				code := lang.Get("code").String()
				marker := " "
				if code == def {
					marker = "*"
				}
				fmt.Printf("%s %-6s %s\n", marker, code, lang.Get("name").String())
				return true
			})
			return nil
		},
	}
}

func newDocCmd() *cobra.Command {
	var loc string
	cmd := &cobra.Command{
		Use:   "doc <collection> <doc-id>",
		Short: "Show a document in a locale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
			if loc != "" {
				path += "?locale=" + url.QueryEscape(loc)
			}
			body, err := call(cmd.Context(), http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			fmt.Println(gjson.GetBytes(body, "doc|@pretty").String())
			return nil
		},
	}
	cmd.Flags().StringVar(&loc, "locale", "", "Locale to read (default: host default)")
	return cmd
}

// call sends a JSON request to the API and returns the response body. Non-2xx
// responses are returned as errors carrying the server's message.
func call(ctx context.Context, method, path string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	target := strings.TrimSuffix(serverAddr, "/") + server.APIPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.WithFields(logrus.Fields{
		"method": method,
		"url":    target,
	}).Debug("Sending request")

	startTime := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"status":           resp.StatusCode,
		"request_id":       resp.Header.Get(server.RequestIDHeader),
		"duration_seconds": time.Since(startTime).Seconds(),
	}).Info("Request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		var details []string
		gjson.GetBytes(body, "details").ForEach(func(_, d gjson.Result) bool {
			details = append(details, d.Get("field").String()+": "+d.Get("message").String())
			return true
		})
		if len(details) > 0 {
			msg += " (" + strings.Join(details, "; ") + ")"
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
	return body, nil
}

func printHeader(title string) {
	separator := strings.Repeat("=", 80)
	fmt.Println()
	fmt.Println(separator)
	fmt.Println(title)
	fmt.Println(separator)
}

func printSection(title string) {
	dashLine := strings.Repeat("-", 80)
	fmt.Println()
	fmt.Println(dashLine)
	fmt.Println(title)
	fmt.Println(dashLine)
}

func printFooter() {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
}
