// =============================================================================
// Tax Hall Analytics - Report Prompt
// =============================================================================
//
// The report generator sees only the aggregate Summary, never individual
// records. This file renders the Summary into the prompt sent to the model.
//
// =============================================================================

package report

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
)

// NoDataMessage is returned instead of calling the model when the summary
// holds no records.
const NoDataMessage = "暂无数据可供分析。请确保上传了包含有效记录的 Excel 文件。"

// Prompt list lengths.
const (
	promptTopBusiness  = 5
	promptTopReasons   = 3
	promptTopOperators = 5
	promptTopSubjects  = 3
)

const systemPrompt = "您是一位资深的税务大厅运营管理专家。"

// BuildPrompt renders the user prompt for a summary.
func BuildPrompt(s types.Summary) string {
	var b strings.Builder

	b.WriteString("请根据以下提供的月度工作台账汇总数据，撰写一份专业的分析报告。\n\n")

	b.WriteString("### 数据概览\n")
	fmt.Fprintf(&b, "- 总业务量：%d 笔\n", s.TotalRecords)
	fmt.Fprintf(&b, "- 业务办成率：%.2f%%\n", s.SuccessRate)
	fmt.Fprintf(&b, "- 征纳互动引导率：%.2f%%\n", s.GuidanceRate)
	fmt.Fprintf(&b, "- 长耗时业务（>20分钟）平均时长：%.1f 分钟\n\n", s.AvgDurationLong)

	b.WriteString("### 详细数据\n")
	fmt.Fprintf(&b, "- 高频业务前五：%s\n", joinCounts(s.TopBusinessTypes, promptTopBusiness))
	fmt.Fprintf(&b, "- 主要进厅原因：%s\n", joinCounts(s.TopReasons, promptTopReasons))
	fmt.Fprintf(&b, "- 受理人Top5工作量：%s\n", joinOperators(s.OperatorStats, promptTopOperators))
	fmt.Fprintf(&b, "- 服务主体分布：%s\n", joinValues(s.SubjectTypeDist, promptTopSubjects))
	if len(s.BusinessBySubject) > 0 {
		b.WriteString("- 各主体高频业务：")
		parts := make([]string, 0, len(s.BusinessBySubject))
		for _, sb := range s.BusinessBySubject {
			parts = append(parts, fmt.Sprintf("%s[%s]", sb.Subject, joinCounts(sb.Data, len(sb.Data))))
		}
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	leadSubject := "纳税人"
	if len(s.SubjectTypeDist) > 0 {
		leadSubject = s.SubjectTypeDist[0].Name
	}

	b.WriteString("### 报告撰写要求\n")
	b.WriteString("请严格按照以下三个部分进行撰写，不需要额外的前言或寒暄，直接进入正文。请使用 Markdown 格式（使用 ## 作为一级标题，* 作为列表）：\n\n")
	b.WriteString("## 1. 高频业务分析\n")
	b.WriteString("*   结合“进厅原因”和“业务类型”数据，分析纳税人进厅的主要需求。\n")
	b.WriteString("*   指出哪些业务占据了主要资源，是否存在可以通过线上化分流的空间。\n")
	fmt.Fprintf(&b, "*   分析不同主体（如%s）的特定业务需求倾向。\n\n", leadSubject)
	b.WriteString("## 2. 受理人工作量分析\n")
	b.WriteString("*   分析受理窗口的工作负荷情况（基于Top 5受理人数据）。\n")
	b.WriteString("*   如果成功率有明显差异，简要分析可能的原因（如业务复杂性或业务熟练度）。\n\n")
	b.WriteString("## 3. 总结分析\n")
	b.WriteString("*   **总体评价**：评价本月大厅的运行效率（办成率、引导率）。\n")
	b.WriteString("*   **改进建议**：针对上述分析，提出具体的可执行建议（例如：针对高频事项开设专窗、加强导税分流、提升数字化引导率等）。\n\n")
	b.WriteString("请语气专业、客观、简练，适合呈报给税务局领导查阅。\n")

	return b.String()
}

// FailureNotice renders the markdown shown to the user when generation fails.
func FailureNotice(err error) string {
	reason := "网络连接不稳定或服务暂时不可用"
	if err != nil && err.Error() != "" {
		reason = err.Error()
	}
	return fmt.Sprintf("⚠️ **分析报告生成失败**\n\n原因：%s\n\n建议：\n1. 请检查您的网络连接。\n2. 确保 API Key 配置正确。\n3. 稍后重试。", reason)
}

func joinCounts(items []types.NameCount, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s(%d)", it.Name, it.Count))
	}
	return strings.Join(parts, ", ")
}

func joinValues(items []types.NameValue, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s(%d)", it.Name, it.Value))
	}
	return strings.Join(parts, ", ")
}

func joinOperators(items []types.OperatorStat, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s(%d笔, 成功率%.0f%%)", it.Name, it.Count, it.SuccessRate))
	}
	return strings.Join(parts, ", ")
}
