package conf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Bootstrap 全局配置
type Bootstrap struct {
	Debug     bool      `toml:"debug" comment:"调试模式，输出更多日志"`
	Log       Log       `toml:"log"`
	Server    Server    `toml:"server"`
	Data      Data      `toml:"data"`
	Capture   Capture   `toml:"capture"`
	Detector  Detector  `toml:"detector"`
	Recorder  Recorder  `toml:"recorder"`
	Clip      Clip      `toml:"clip"`
	Upload    Upload    `toml:"upload"`
	Cleanup   Cleanup   `toml:"cleanup"`
	Calibrate Calibrate `toml:"calibrate"`
	ConfigDir string    `toml:"-"`
}

type Log struct {
	Dir    string   `toml:"dir" comment:"日志目录，为空时只输出到控制台"`
	Level  string   `toml:"level" comment:"debug/info/warn/error"`
	MaxAge Duration `toml:"max_age" comment:"日志保留时长"`
}

type Server struct {
	HTTP ServerHTTP `toml:"http"`
}

type ServerHTTP struct {
	Port    int      `toml:"port"`
	Timeout Duration `toml:"timeout"`
}

type Data struct {
	Database Database `toml:"database"`
}

type Database struct {
	Dsn             string   `toml:"dsn" comment:"sqlite 文件路径，或 postgres:// mysql:// 开头的连接串"`
	MaxIdleConns    int32    `toml:"max_idle_conns"`
	MaxOpenConns    int32    `toml:"max_open_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
	SlowThreshold   Duration `toml:"slow_threshold"`
}

// Capture 帧来源，ffmpeg 拉流并输出原始帧
type Capture struct {
	Input     string `toml:"input" comment:"RTSP 地址或本地设备，如 /dev/video0"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	FPS       int    `toml:"fps"`
	Transport string `toml:"transport"`
	HWAccel   string `toml:"hwaccel"`
}

// Detector 外部推理服务
type Detector struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
}

// Recorder 事件录制状态机参数
type Recorder struct {
	TargetClass      string   `toml:"target_class" comment:"触发录制的检测类别"`
	DetectionTimeout Duration `toml:"detection_timeout" comment:"最后一次检测后等待多久结束事件"`
	MaxEventFrames   int      `toml:"max_event_frames" comment:"单个事件最大帧数，达到后切分为新片段，0 表示不限制"`
}

// Clip 片段落盘参数
type Clip struct {
	OutputDir     string   `toml:"output_dir"`
	Prefix        string   `toml:"prefix"`
	FPS           int      `toml:"fps"`
	VideoExt      string   `toml:"video_ext"`
	VideoCodec    string   `toml:"video_codec"`
	VideoTag      string   `toml:"video_tag"`
	FFmpeg        string   `toml:"ffmpeg" comment:"ffmpeg 可执行文件"`
	JPEGQuality   int      `toml:"jpeg_quality"`
	MaxConcurrent int      `toml:"max_concurrent" comment:"同时编码的片段数"`
	DrainTimeout  Duration `toml:"drain_timeout" comment:"退出时等待片段落盘的最长时间"`
}

// Upload 对象存储上传参数
type Upload struct {
	Driver       string   `toml:"driver" comment:"s3 或 cos"`
	Endpoint     string   `toml:"endpoint" comment:"s3 为 host，cos 为 bucket url"`
	Region       string   `toml:"region"`
	Bucket       string   `toml:"bucket"`
	AccessKey    string   `toml:"access_key"`
	SecretKey    string   `toml:"secret_key"`
	Secure       bool     `toml:"secure"`
	ProbeURL     string   `toml:"probe_url" comment:"上传前的连通性探测地址"`
	ProbeTimeout Duration `toml:"probe_timeout"`
	Backoff      Duration `toml:"backoff" comment:"网络不可达或上传失败后的等待时长"`
}

// Cleanup 本地记录清理
type Cleanup struct {
	Disabled           bool     `toml:"disabled"`
	RetainDays         int      `toml:"retain_days"`
	DiskUsageThreshold float64  `toml:"disk_usage_threshold"`
	Interval           Duration `toml:"interval"`
}

// Calibrate 定时上传最新画面，用于安装时校准摄像头角度
type Calibrate struct {
	Interval Duration `toml:"interval" comment:"上传间隔，0 表示关闭"`
}

// DefaultConfig 默认配置
func DefaultConfig() Bootstrap {
	return Bootstrap{
		Log: Log{
			Dir:    "logs",
			Level:  "info",
			MaxAge: Duration(7 * 24 * time.Hour),
		},
		Server: Server{
			HTTP: ServerHTTP{Port: 15123, Timeout: Duration(60 * time.Second)},
		},
		Data: Data{
			Database: Database{
				Dsn:             "configs/data.db",
				MaxIdleConns:    10,
				MaxOpenConns:    50,
				ConnMaxLifetime: Duration(6 * time.Hour),
				SlowThreshold:   Duration(200 * time.Millisecond),
			},
		},
		Capture: Capture{
			Width:     1280,
			Height:    720,
			FPS:       30,
			Transport: "tcp",
		},
		Detector: Detector{
			URL:     "http://127.0.0.1:8000/detect",
			Timeout: Duration(2 * time.Second),
		},
		Recorder: Recorder{
			TargetClass:      "pothole",
			DetectionTimeout: Duration(3 * time.Second),
			MaxEventFrames:   1800,
		},
		Clip: Clip{
			OutputDir:     "cached_clips",
			Prefix:        "pothole",
			FPS:           30,
			VideoExt:      "avi",
			VideoCodec:    "mpeg4",
			VideoTag:      "XVID",
			FFmpeg:        "ffmpeg",
			JPEGQuality:   90,
			MaxConcurrent: 2,
			DrainTimeout:  Duration(30 * time.Second),
		},
		Upload: Upload{
			Driver:       "s3",
			Endpoint:     "fly.storage.tigris.dev",
			Region:       "auto",
			Bucket:       "pothole-images",
			Secure:       true,
			ProbeURL:     "https://www.google.com",
			ProbeTimeout: Duration(5 * time.Second),
			Backoff:      Duration(120 * time.Second),
		},
		Cleanup: Cleanup{
			RetainDays:         30,
			DiskUsageThreshold: 90,
			Interval:           Duration(60 * time.Minute),
		},
		Calibrate: Calibrate{Interval: Duration(5 * time.Minute)},
	}
}

// SetupConfig 读取 configDir/config.toml，文件不存在时写入默认配置
// 随后加载 configDir/.env 并应用环境变量覆盖
func SetupConfig(configDir string) (*Bootstrap, error) {
	bc := DefaultConfig()
	bc.ConfigDir = configDir

	path := filepath.Join(configDir, "config.toml")
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := WriteConfig(&bc, path); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(b, &bc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	// .env 不存在时忽略
	_ = godotenv.Load(filepath.Join(configDir, ".env"))
	bc.applyEnv()
	return &bc, nil
}

// WriteConfig 将配置写入文件
func WriteConfig(bc *Bootstrap, path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(bc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// applyEnv 对象存储凭证允许通过环境变量注入，避免明文写入配置文件
func (bc *Bootstrap) applyEnv() {
	if v := os.Getenv("S3_URL"); v != "" {
		bc.Upload.Endpoint = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		bc.Upload.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		bc.Upload.SecretKey = v
	}
	if v := os.Getenv("TIGRIS_BUCKET_NAME"); v != "" {
		bc.Upload.Bucket = v
	}
}
