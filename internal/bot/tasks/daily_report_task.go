package tasks

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"

	"forwardbot/internal/database"
)

// newDailyReportTask creates the scheduled task that builds a forwarding
// report from the forward log and sends it to the configured report chat,
// falling back to the seed admins when no report chat is set.
func newDailyReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_report")

	return func(ctx context.Context) error {
		if !deps.Config.Notifications.DailyReport {
			log.DebugContext(ctx, "Daily report disabled, skipping")
			return nil
		}

		days := deps.Config.Notifications.ReportDays
		rows, err := deps.Store.Report(ctx, days)
		if err != nil {
			log.ErrorContext(ctx, "Failed to build report", "days", days, "error", err)
			return fmt.Errorf("failed to build report: %w", err)
		}

		report := formatReport(days, rows)
		recipients := reportRecipients(deps)
		if len(recipients) == 0 {
			log.WarnContext(ctx, "No report recipients configured, skipping")
			return nil
		}

		var sendErr error
		for _, chatID := range recipients {
			if _, err := deps.TG.SendMessage(ctx, &tgbot.SendMessageParams{
				ChatID: chatID,
				Text:   report,
			}); err != nil {
				log.ErrorContext(ctx, "Failed to send report", "chat_id", chatID, "error", err)
				sendErr = err
			}
		}
		if sendErr != nil {
			return fmt.Errorf("failed to deliver report: %w", sendErr)
		}

		log.InfoContext(ctx, "Report sent", "days", days, "recipients", len(recipients))
		return nil
	}
}

// formatReport renders the aggregated rows as a plain-text report.
func formatReport(days int, rows []database.ReportRow) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d-day forwarding report\n\n", days)

	if len(rows) == 0 {
		sb.WriteString("No forwards recorded in this period.")
		return sb.String()
	}

	var total, success int64
	for _, row := range rows {
		total += row.Total
		success += row.Success
	}

	sb.WriteString("Overall:\n")
	fmt.Fprintf(&sb, "- messages: %d\n", total)
	fmt.Fprintf(&sb, "- forwarded: %d\n", success)
	fmt.Fprintf(&sb, "- success rate: %.1f%%\n\n", float64(success)/float64(total)*100)

	sb.WriteString("By content type:\n")
	for _, row := range rows {
		rate := 0.0
		if row.Total > 0 {
			rate = float64(row.Success) / float64(row.Total) * 100
		}
		fmt.Fprintf(&sb, "- %s: %d/%d (%.1f%%)\n", row.ContentType, row.Success, row.Total, rate)
	}

	return sb.String()
}

func reportRecipients(deps TaskDeps) []int64 {
	if chatID := deps.Config.Notifications.ReportChatID; chatID != 0 {
		return []int64{chatID}
	}
	return deps.Config.Telegram.AdminIDs
}
