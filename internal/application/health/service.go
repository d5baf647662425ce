package health

import (
	"context"
	"encoding/json"
	"errors"
	"runtime"
	"strconv"
	"time"

	"souk-backend/internal/infrastructure/remote"
	"souk-backend/internal/infrastructure/storage"
	"souk-backend/internal/infrastructure/syncbus"
	"souk-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Probes are the dependencies CollectHealth inspects. Nil fields are reported as disconnected or disabled.
type Probes struct {
	Storage       *storage.SafeStore
	StorageDriver string
	Redis         *redis.Client
	Bus           *syncbus.Bus
	SyncTransport string
	Remote        *remote.Client
}

// CollectResult is the payload of /health/json and the dashboard.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Data         DataInfo             `json:"data"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	RSS      int `json:"rss"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

// DataInfo summarizes what the persistence layer currently holds.
type DataInfo struct {
	Keys        int    `json:"keys"`
	TotalKB     string `json:"totalKB"`
	Subscribers int    `json:"subscribers"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
	Detail string      `json:"detail,omitempty"`
}

// CollectHealth gathers storage, Redis traffic, sync and remote API status.
func CollectHealth(ctx context.Context, p Probes) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
	}

	storageStatus := "disconnected"
	var storagePingMs *int64
	if p.Storage != nil {
		start := time.Now()
		if err := p.Storage.Ping(ctx); err == nil {
			ms := time.Since(start).Milliseconds()
			storagePingMs = &ms
			storageStatus = "connected"
			info := p.Storage.Info(ctx)
			result.Data.Keys = info.ItemCount
			result.Data.TotalKB = info.TotalKB
		} else {
			storageStatus = "error"
		}
	}
	result.Dependencies["storage"] = DepStatus{Status: storageStatus, PingMs: storagePingMs, Detail: p.StorageDriver}

	redisStatus := "disabled"
	var redisPingMs *int64
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()

	if p.Redis != nil {
		start := time.Now()
		if err := p.Redis.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"
			stats, startTimeMs = readTraffic(ctx, p.Redis, startTimeMs)
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}

	transport := p.SyncTransport
	if transport == "" {
		transport = "local"
	}
	syncStatus := "disconnected"
	if p.Bus != nil {
		syncStatus = "connected"
		result.Data.Subscribers = p.Bus.Subscribers()
	}
	result.Dependencies["sync"] = DepStatus{Status: syncStatus, Detail: transport}

	remoteStatus := "disabled"
	var remotePingMs *int64
	if p.Remote != nil {
		start := time.Now()
		err := p.Remote.Do(ctx, "GET", "/health", nil, nil)
		var se *remote.StatusError
		if err == nil || errors.As(err, &se) {
			ms := time.Since(start).Milliseconds()
			remotePingMs = &ms
			remoteStatus = "reachable"
		} else {
			remoteStatus = "unreachable"
		}
	}
	result.Dependencies["remote"] = DepStatus{Status: remoteStatus, PingMs: remotePingMs}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{RSS: int(m.Sys / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
	result.Traffic = stats

	if storageStatus == "connected" && redisStatus != "error" && remoteStatus != "unreachable" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

// readTraffic reads the request counters written by middleware.HealthMarker.
func readTraffic(ctx context.Context, rdb *redis.Client, startTimeMs int64) (TrafficInfo, int64) {
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	totalReq, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := rdb.Get(ctx, middleware.KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return stats, startTimeMs
}
