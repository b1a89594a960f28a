package model

import (
	"time"

	"gorm.io/datatypes"
)

// Tip 对外发布的单条预测（首页/按日期列表读取）
type Tip struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Match     string    `gorm:"column:match;type:varchar(256);not null;comment:对阵（Home vs Away）" json:"match"`
	League    string    `gorm:"column:league;type:varchar(128);not null;comment:联赛名称" json:"league"`
	Tip       string    `gorm:"column:tip;type:varchar(32);not null;comment:玩法标签" json:"tip"`
	Odds      *string   `gorm:"column:odds;type:varchar(16);comment:赔率（无赔率时为占位符）" json:"odds"`
	IsPremium bool      `gorm:"column:is_premium;type:boolean;default:false;index:idx_tips_date_premium,priority:2;comment:是否付费" json:"isPremium"`
	Date      string    `gorm:"column:date;type:varchar(10);not null;index:idx_tips_date_premium,priority:1;comment:日期 YYYY-MM-DD" json:"date"`
	Time      string    `gorm:"column:time;type:varchar(5);not null;comment:调整后的开赛时间 HH:MM" json:"time"`
	Status    string    `gorm:"column:status;type:varchar(16);default:pending;comment:状态：pending/won/lost" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now();comment:更新时间" json:"updatedAt"`
}

// IngestionRun 每次抓取入库的审计记录
type IngestionRun struct {
	ID         uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	RunUUID    string         `gorm:"column:run_uuid;type:varchar(64);uniqueIndex;not null;comment:全局唯一ID" json:"runId"`
	Date       string         `gorm:"column:date;type:varchar(10);index;not null;comment:目标日期" json:"date"`
	Source     string         `gorm:"column:source;type:varchar(16);not null;comment:来源：upload/network/schedule" json:"source"`
	Ruleset    string         `gorm:"column:ruleset;type:varchar(64);not null;comment:分类规则集名称" json:"ruleset"`
	Processed  int            `gorm:"column:processed;type:int;default:0;comment:抓取行数" json:"processed"`
	Saved      int            `gorm:"column:saved;type:int;default:0;comment:实际入库数" json:"saved"`
	Cleared    int64          `gorm:"column:cleared;type:bigint;default:0;comment:清除的旧记录数" json:"cleared"`
	Skipped    bool           `gorm:"column:skipped;type:boolean;default:false;comment:是否跳过替换" json:"skipped"`
	Success    bool           `gorm:"column:success;type:boolean;default:false;comment:是否成功" json:"success"`
	Message    string         `gorm:"column:message;type:text;comment:结果说明" json:"message"`
	Stats      datatypes.JSON `gorm:"column:stats;type:jsonb;comment:分类统计" json:"stats"`
	DurationMs int64          `gorm:"column:duration_ms;type:bigint;default:0;comment:耗时（毫秒）" json:"durationMs"`
	CreatedAt  time.Time      `gorm:"column:created_at;type:timestamp;default:now();comment:创建时间" json:"createdAt"`
}

// FameTip 旁路“精选”数据源（另一站点的历史预测）
type FameTip struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Time      string    `gorm:"column:time;type:varchar(5)" json:"time"`
	Siku      string    `gorm:"column:siku;type:varchar(10);index;comment:日期" json:"siku"`
	League    string    `gorm:"column:league;type:varchar(128)" json:"league"`
	Match     string    `gorm:"column:match;type:varchar(256)" json:"match"`
	Tip       string    `gorm:"column:tip;type:varchar(32)" json:"tip"`
	Nano      string    `gorm:"column:nano;type:varchar(16);comment:赔率" json:"nano"`
	Matokeo   string    `gorm:"column:matokeo;type:varchar(16);default:'-:-';comment:比赛结果" json:"matokeo"`
	Status    string    `gorm:"column:status;type:varchar(16);default:pending" json:"status"`
	UTC3      int64     `gorm:"column:utc3;type:bigint;comment:东三区开赛时间戳" json:"utc3"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:now()" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:now()" json:"updatedAt"`
}

func (Tip) TableName() string          { return "tips" }
func (IngestionRun) TableName() string { return "ingestion_runs" }
func (FameTip) TableName() string      { return "fame_tips" }
