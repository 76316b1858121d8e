package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"anonchat/internal/fingerprint"
)

const (
	baseURL      = "http://127.0.0.1:18080"
	numWorkers   = 20
	testDuration = 10 * time.Second
	numProfiles  = 100
	maxPages     = 10
)

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
	"Mozilla/5.0 (X11; Linux x86_64)",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)",
	"Mozilla/5.0 (Linux; Android 14)",
}

var messages = []string{
	"hello there",
	"anyone around?",
	"nice weather today",
	"<script>should be escaped</script>",
	"проверка связи",
}

// profileHashes holds the minted identities the workers send as.
var profileHashes = make([]string, numProfiles)

type sentMessage struct {
	id   string
	hash string
}

// sentIDs collects accepted messages so later edits and deletes can
// target real ids owned by the right identity.
var (
	sentMu  sync.Mutex
	sentIDs []sentMessage
)

func recordSent(id, hash string) {
	sentMu.Lock()
	sentIDs = append(sentIDs, sentMessage{id: id, hash: hash})
	sentMu.Unlock()
}

func pickSent(rng *rand.Rand, remove bool) (sentMessage, bool) {
	sentMu.Lock()
	defer sentMu.Unlock()
	if len(sentIDs) == 0 {
		return sentMessage{}, false
	}
	i := rng.Intn(len(sentIDs))
	msg := sentIDs[i]
	if remove {
		sentIDs[i] = sentIDs[len(sentIDs)-1]
		sentIDs = sentIDs[:len(sentIDs)-1]
	}
	return msg, true
}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== AnonChat Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s | Profiles: %d\n\n", numWorkers, testDuration, numProfiles)

	mintIdentities()

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: register every identity
	fmt.Println("\n--- Phase 1: Creating profiles ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doCreateProfile(rng)
	})

	// Phase 2: chat traffic, mostly sends (the cooldown gate answers 429)
	fmt.Println("\n--- Phase 2: Mixed load (50% send, 25% list, 15% edit/delete, 10% profile reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.50:
			return doSendMessage(rng)
		case r < 0.75:
			return doListMessages(rng)
		case r < 0.85:
			return doEditMessage(rng)
		case r < 0.90:
			return doDeleteMessage(rng)
		default:
			return doGetProfile(rng)
		}
	})

	// Phase 3: read-heavy, the listing cache should carry this
	fmt.Println("\n--- Phase 3: Read-heavy load (10% send, 90% list) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.10 {
			return doSendMessage(rng)
		}
		return doListMessages(rng)
	})
}

// mintIdentities derives hashes the same way the browser client does:
// a digest over the ordered fingerprint signals.
func mintIdentities() {
	for i := range profileHashes {
		signals := []fingerprint.Signal{
			{Name: "userAgent", Value: userAgents[i%len(userAgents)]},
			{Name: "language", Value: "en-US"},
			{Name: "timezoneOffset", Value: fmt.Sprintf("%d", -60*(i%12))},
			{Name: "colorDepth", Value: "24"},
			{Name: "seed", Value: fmt.Sprintf("%d", i)},
		}
		profileHashes[i] = fingerprint.Digest(signals)
	}
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func doCreateProfile(rng *rand.Rand) result {
	i := rng.Intn(numProfiles)
	body := map[string]interface{}{
		"action": "create_profile",
		"hash":   profileHashes[i],
		"data": map[string]interface{}{
			"userAgent": userAgents[i%len(userAgents)],
			"language":  "en-US",
		},
	}
	return doPost("POST create_profile", body, http.StatusOK)
}

func doSendMessage(rng *rand.Rand) result {
	hash := profileHashes[rng.Intn(numProfiles)]
	body := map[string]interface{}{
		"hash": hash,
		"name": fmt.Sprintf("loadtester-%d", rng.Intn(numWorkers)),
		"text": messages[rng.Intn(len(messages))],
	}

	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{"POST send", 0, lat, true}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var sent struct {
			Message struct {
				ID string `json:"id"`
			} `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&sent) == nil && sent.Message.ID != "" {
			recordSent(sent.Message.ID, hash)
		}
		return result{"POST send", resp.StatusCode, lat, false}
	}
	io.Copy(io.Discard, resp.Body)
	// every worker shares one source address, 429 is the expected answer
	return result{"POST send", resp.StatusCode, lat, resp.StatusCode != http.StatusTooManyRequests}
}

func doEditMessage(rng *rand.Rand) result {
	msg, ok := pickSent(rng, false)
	if !ok {
		return doListMessages(rng)
	}
	body := map[string]interface{}{
		"action":     "edit_message",
		"hash":       msg.hash,
		"message_id": msg.id,
		"text":       messages[rng.Intn(len(messages))] + " (edited)",
	}
	r := doPost("POST edit_message", body, http.StatusOK)
	// a concurrent delete can win the race, 404 is fine here
	if r.status == http.StatusNotFound {
		r.err = false
	}
	return r
}

func doDeleteMessage(rng *rand.Rand) result {
	msg, ok := pickSent(rng, true)
	if !ok {
		return doListMessages(rng)
	}
	body := map[string]interface{}{
		"action":     "delete_message",
		"hash":       msg.hash,
		"message_id": msg.id,
	}
	return doPost("POST delete_message", body, http.StatusOK)
}

func doGetProfile(rng *rand.Rand) result {
	body := map[string]interface{}{
		"action": "get_profile",
		"hash":   profileHashes[rng.Intn(numProfiles)],
	}
	r := doPost("POST get_profile", body, http.StatusOK)
	// profiles not yet created answer 404, that is not a failure here
	if r.status == http.StatusNotFound {
		r.err = false
	}
	return r
}

func doListMessages(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/?page=%d", baseURL, rng.Intn(maxPages)+1)
	start := time.Now()
	resp, err := httpClient.Get(url)
	lat := time.Since(start)
	if err != nil {
		return result{"GET list", 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{"GET list", resp.StatusCode, lat, resp.StatusCode != http.StatusOK}
}

func doPost(endpoint string, body map[string]interface{}, wantStatus int) result {
	data, _ := json.Marshal(body)
	start := time.Now()
	resp, err := httpClient.Post(baseURL+"/", "application/json", bytes.NewReader(data))
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{endpoint, resp.StatusCode, lat, resp.StatusCode != wantStatus}
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
