// Package report renders the annual report document. Rendering is a pure
// function of its Input; no I/O happens here.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"telereport/internal/collect"
)

// moderationCleanThreshold is the blocked-list size below which the account
// is called clean.
const moderationCleanThreshold = 20

// UnknownUser is the label used when the identity has no usable name.
const UnknownUser = "未知用户"

const (
	cleanAccountLine = "你的账户真的很干净"
	lessSpamLine     = "愿明年的spam少一些"
	premiumLine      = "你已成为TG大会员用户，愿新一年继续享受专属特权"
)

// Status and failure texts shown in place of the report.
const (
	LoadingText  = "🔄 加载中请稍候。。。"
	NoClientText = "❌ 无法获取客户端"
)

// Identity is the current account as shown in the title.
type Identity struct {
	Username  string
	FirstName string
	LastName  string
	Premium   bool
}

// DisplayName resolves the title label: @username, then "first last",
// then first name alone, then UnknownUser.
func (i Identity) DisplayName() string {
	switch {
	case i.Username != "":
		return "@" + i.Username
	case i.FirstName != "" && i.LastName != "":
		return i.FirstName + " " + i.LastName
	case i.FirstName != "":
		return i.FirstName
	default:
		return UnknownUser
	}
}

// Input is everything the document depends on.
type Input struct {
	Identity   Identity
	Year       int
	HostName   string
	TenureDays int
	Extensions int
	Chats      collect.Composition
	Blocked    int
	// Quote is already escaped by the quote fetcher.
	Quote string
}

// Year returns the year a report generated at now is about. During January
// the previous calendar year is reported.
func Year(now time.Time) int {
	if now.Month() == time.January {
		return now.Year() - 1
	}
	return now.Year()
}

// ModerationLine picks the commentary for the blocked-list size.
func ModerationLine(blocked int) string {
	if blocked < moderationCleanThreshold {
		return cleanAccountLine
	}
	return lessSpamLine
}

// Compose renders the document. Interpolated free text is escaped; the
// fixed template text is not.
func Compose(in Input) string {
	year := strconv.Itoa(in.Year)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>%s 的 %s 年度报告</b>\n", Escape(in.Identity.DisplayName()), year))
	sb.WriteString("\n")

	sb.WriteString("📅 <b>陪伴时光</b>\n")
	sb.WriteString(fmt.Sprintf("%s 已陪伴你的 TG %d 天\n", Escape(in.HostName), in.TenureDays))
	sb.WriteString(fmt.Sprintf("安装了 %d 个插件，为你的使用体验增光添彩\n", in.Extensions))
	sb.WriteString("\n")

	sb.WriteString("👥 <b>社交网络</b>\n")
	sb.WriteString(fmt.Sprintf("你邂逅了 %d 个频道，%d 个群组\n", in.Chats.Channels, in.Chats.Groups))
	sb.WriteString(fmt.Sprintf("遇见了 %d 个有趣的灵魂，使用了 %d 个机器人\n", in.Chats.Private, in.Chats.Bots))
	sb.WriteString("愿你的生活每天都像庆典一样开心\n")
	sb.WriteString("\n")

	sb.WriteString("🛡️ <b>安全守护</b>\n")
	sb.WriteString(fmt.Sprintf("你的黑名单里有 %d 人\n", in.Blocked))
	sb.WriteString(ModerationLine(in.Blocked) + "\n")
	sb.WriteString("\n")

	if in.Identity.Premium {
		sb.WriteString("⭐ <b>会员特权</b>\n")
		sb.WriteString(premiumLine + "\n")
		sb.WriteString("\n")
	}

	sb.WriteString("💫 <b>年度寄语</b>\n")
	sb.WriteString(in.Quote + "\n")
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("<code>#%s年度报告</code>", year))

	return sb.String()
}

// FailureText is shown when the report could not be produced.
func FailureText(err error) string {
	reason := "未知错误"
	if err != nil && err.Error() != "" {
		reason = err.Error()
	}
	return "❌ <b>生成报告失败:</b> " + Escape(reason)
}
