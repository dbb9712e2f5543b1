// Package probe 通过系统 ping 检查主机可达性。
package probe

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/inventario/inventory"
)

// Status 是一次检查的展示结果。
type Status string

const (
	Online        Status = "online"
	Offline       Status = "offline"
	NotApplicable Status = "n/a"
)

// Label 返回界面上显示的文字。
func (s Status) Label() string {
	switch s {
	case Online:
		return "✅ Online"
	case Offline:
		return "❌ Offline"
	default:
		return "⚪ N/A"
	}
}

// Unassigned 是登记时的占位地址，不参与探测。
const Unassigned = inventory.DefaultIP

const (
	defaultTimeout = time.Second
	defaultWorkers = 8
)

// Runner 执行外部命令，返回非 nil 表示失败或非零退出码。
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// Prober 每个地址调用一次 ping，单次尝试。
type Prober struct {
	runner  Runner
	goos    string
	timeout time.Duration
	workers int
	logger  *zap.Logger
}

// Option 配置 Prober。
type Option func(*Prober)

// WithRunner 替换命令执行器（测试用）。
func WithRunner(r Runner) Option { return func(p *Prober) { p.runner = r } }

// WithOS 指定 ping 参数风格（windows/linux/darwin）。
func WithOS(goos string) Option { return func(p *Prober) { p.goos = goos } }

// WithWorkers 限制 CheckAll 的并发数。
func WithWorkers(n int) Option {
	return func(p *Prober) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l *zap.Logger) Option {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

// New 创建使用系统 ping 的 Prober。
func New(opts ...Option) *Prober {
	p := &Prober{
		runner:  execRunner{},
		goos:    runtime.GOOS,
		timeout: defaultTimeout,
		workers: defaultWorkers,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Args 返回目标系统上 ping 一次、等待 1 秒的参数。
func Args(goos, ip string) []string {
	switch goos {
	case "windows":
		return []string{"-n", "1", "-w", "1000", ip}
	case "darwin", "freebsd", "openbsd", "netbsd":
		return []string{"-c", "1", "-t", "1", ip}
	default:
		return []string{"-c", "1", "-W", "1", ip}
	}
}

// Probe 报告 ip 是否回应；任何调用失败都视为 false。
// 非法地址不会交给 ping。
func (p *Prober) Probe(ctx context.Context, ip string) bool {
	if !inventory.ValidIP(ip) {
		return false
	}
	// 额外留出进程启动时间
	ctx, cancel := context.WithTimeout(ctx, p.timeout+time.Second)
	defer cancel()

	if err := p.runner.Run(ctx, "ping", Args(p.goos, ip)...); err != nil {
		p.logger.Debug("ping failed", zap.String("ip", ip), zap.Error(err))
		return false
	}
	return true
}

// Classify 把 0.0.0.0 归为 NotApplicable，其余按 Probe 结果归类。
func (p *Prober) Classify(ctx context.Context, ip string) Status {
	if ip == Unassigned {
		return NotApplicable
	}
	if p.Probe(ctx, ip) {
		return Online
	}
	return Offline
}

// Result 是单个地址的检查结果。
type Result struct {
	Tag    string `json:"tag,omitempty"`
	IP     string `json:"ip"`
	Status Status `json:"status"`
}

// CheckAll 并发检查所有地址，结果按输入顺序返回。
func (p *Prober) CheckAll(ctx context.Context, ips []string) []Result {
	results := make([]Result, len(ips))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, ip := range ips {
		g.Go(func() error {
			results[i] = Result{IP: ip, Status: p.Classify(gctx, ip)}
			return nil
		})
	}
	_ = g.Wait() // 单个地址的失败已映射为 Offline
	return results
}

// CheckAssets 检查资产的 IP，并带上资产编号。
func (p *Prober) CheckAssets(ctx context.Context, assets []inventory.Asset) []Result {
	ips := make([]string, len(assets))
	for i, a := range assets {
		ips[i] = a.IP
	}
	results := p.CheckAll(ctx, ips)
	for i := range results {
		results[i].Tag = assets[i].Tag
	}
	return results
}
