package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// vaultctl is a small operator client for the vault daemon. Every command
// needs a bearer token minted by the daemon (or the platform's auth service).
func main() {
	// ---- stats ----
	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
	statsAddr := statsCmd.String("addr", "http://localhost:8090", "daemon address")
	statsToken := statsCmd.String("token", "", "bearer token")

	// ---- report ----
	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	reportAddr := reportCmd.String("addr", "http://localhost:8090", "daemon address")
	reportToken := reportCmd.String("token", "", "bearer token")
	reportStart := reportCmd.String("start", "", "window start (RFC3339)")
	reportEnd := reportCmd.String("end", "", "window end (RFC3339, default now)")

	// ---- user ----
	userCmd := flag.NewFlagSet("user", flag.ExitOnError)
	userAddr := userCmd.String("addr", "http://localhost:8090", "daemon address")
	userToken := userCmd.String("token", "", "bearer token")
	userID := userCmd.String("id", "", "user id")

	// ---- get ----
	getCmd := flag.NewFlagSet("get", flag.ExitOnError)
	getAddr := getCmd.String("addr", "http://localhost:8090", "daemon address")
	getToken := getCmd.String("token", "", "bearer token")
	getID := getCmd.String("id", "", "record id")
	getReason := getCmd.String("reason", "", "access reason (required, audited)")

	// ---- delete ----
	delCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	delAddr := delCmd.String("addr", "http://localhost:8090", "daemon address")
	delToken := delCmd.String("token", "", "bearer token")
	delID := delCmd.String("id", "", "record id")
	delReason := delCmd.String("reason", "", "deletion reason (audited)")

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "stats":
		_ = statsCmd.Parse(os.Args[2:])
		dieIf(call(*statsAddr, *statsToken, http.MethodGet, "/api/stats", nil))

	case "report":
		_ = reportCmd.Parse(os.Args[2:])
		end := *reportEnd
		if end == "" {
			end = time.Now().UTC().Format(time.RFC3339)
		}
		q := url.Values{"start": {*reportStart}, "end": {end}}
		dieIf(call(*reportAddr, *reportToken, http.MethodGet, "/api/report?"+q.Encode(), nil))

	case "user":
		_ = userCmd.Parse(os.Args[2:])
		if *userID == "" {
			dieIf(fmt.Errorf("user: -id is required"))
		}
		dieIf(call(*userAddr, *userToken, http.MethodGet, "/api/users/"+url.PathEscape(*userID)+"/records", nil))

	case "get":
		_ = getCmd.Parse(os.Args[2:])
		if *getID == "" {
			dieIf(fmt.Errorf("get: -id is required"))
		}
		q := url.Values{"reason": {*getReason}}
		dieIf(call(*getAddr, *getToken, http.MethodGet, "/api/records/"+url.PathEscape(*getID)+"?"+q.Encode(), nil))

	case "delete":
		_ = delCmd.Parse(os.Args[2:])
		if *delID == "" {
			dieIf(fmt.Errorf("delete: -id is required"))
		}
		q := url.Values{"reason": {*delReason}}
		dieIf(call(*delAddr, *delToken, http.MethodDelete, "/api/records/"+url.PathEscape(*delID)+"?"+q.Encode(), nil))

	default:
		usage()
	}
}

// call performs one authenticated request and pretty-prints the JSON body.
func call(addr, token, method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, addr+path, body)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty any
	if json.Unmarshal(raw, &pretty) == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
	} else {
		fmt.Println(string(raw))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}

func usage() {
	fmt.Print(`vaultctl commands:

  stats   --addr URL --token T
  report  --addr URL --token T --start RFC3339 [--end RFC3339]
  user    --addr URL --token T --id USER
  get     --addr URL --token T --id RECORD --reason "why"
  delete  --addr URL --token T --id RECORD --reason "why"
`)
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
