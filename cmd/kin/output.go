package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ersonp/kin-core/internal/application/handlers"
	"github.com/ersonp/kin-core/internal/domain/entities"
	"github.com/ersonp/kin-core/internal/domain/services"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printFamilies(w io.Writer, families []entities.Family) {
	if len(families) == 0 {
		fmt.Fprintln(w, "No families yet. Create one with: kin families add <name>")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, f := range families {
		fmt.Fprintf(tw, "%d\t%s\n", f.ID, f.Name)
	}
	tw.Flush()
}

func printMembers(w io.Writer, result *handlers.MemberListResult) {
	fmt.Fprintf(w, "%s: %d members\n", result.Family.Name, result.Total)
	if len(result.Members) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, m := range result.Members {
		fmt.Fprintf(tw, "%d\t%s\n", m.ID, m.Name)
	}
	tw.Flush()
}

// printRelations prints one line per stored edge: "<related> is <primary>'s <kind>".
func printRelations(w io.Writer, result *handlers.ListResult) {
	if len(result.Relationships) == 0 {
		fmt.Fprintln(w, "No relationships found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRIMARY\tKIND\tRELATED\tNOTES")
	for _, v := range result.Relationships {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			v.ID,
			displayName(v.PrimaryName, v.PrimaryID),
			v.Kind,
			displayName(v.RelatedName, v.RelatedID),
			v.Notes,
		)
	}
	tw.Flush()
}

func printTree(w io.Writer, tree *entities.RelationshipTree) {
	fmt.Fprintf(w, "%s\n", displayName(tree.MemberName, tree.MemberID))
	if len(tree.Groups) == 0 {
		fmt.Fprintln(w, "  (no relationships)")
		return
	}

	for gi, group := range tree.Groups {
		lastGroup := gi == len(tree.Groups)-1
		branch, indent := "+-", "|  "
		if lastGroup {
			branch, indent = "\\-", "   "
		}
		fmt.Fprintf(w, "%s %s\n", branch, group.Label)

		for mi, entry := range group.Members {
			leaf := "+-"
			if mi == len(group.Members)-1 {
				leaf = "\\-"
			}
			line := fmt.Sprintf("%s%s %s", indent, leaf, displayName(entry.MemberName, entry.MemberID))
			if entry.Notes != "" {
				line += " (" + entry.Notes + ")"
			}
			fmt.Fprintln(w, line)
		}
	}
}

func printKinds(w io.Writer, kinds []handlers.KindInfo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tRECIPROCAL\tSYMMETRY")
	for _, k := range kinds {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", k.Ordinal, k.Kind, k.Reciprocal, k.Symmetry)
	}
	tw.Flush()
}

func printHistory(w io.Writer, id string, entries []entities.AuditEntry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No history for relationship %s\n", id)
		return
	}
	for _, e := range entries {
		user := e.UserID
		if user == "" {
			user = "-"
		}
		fmt.Fprintf(w, "%s  %-22s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action, user)
	}
}

func printWriteResult(w io.Writer, verb string, result *services.WriteResult) {
	rel := result.Relationship
	fmt.Fprintf(w, "%s relationship: %s\n", verb, rel.ID)
	fmt.Fprintf(w, "  %d -[%s]-> %d\n", rel.PrimaryID, rel.Kind, rel.RelatedID)
	if result.Reciprocal != nil {
		mirror := result.Reciprocal
		fmt.Fprintf(w, "  %d -[%s]-> %d (reciprocal %s)\n", mirror.PrimaryID, mirror.Kind, mirror.RelatedID, mirror.ID)
	}
	if rel.Notes != "" {
		fmt.Fprintf(w, "  notes: %s\n", rel.Notes)
	}
}

func printImportResult(w io.Writer, result *services.ImportResult, dryRun bool) {
	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "\nValidation errors (%d):\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  [%s] %s\n", e.Family, e.Error())
		}
	}

	fmt.Fprintln(w)
	var parts []string
	if dryRun {
		parts = append(parts, fmt.Sprintf("Dry run: %d relationships would be imported", result.Imported))
	} else {
		parts = append(parts, fmt.Sprintf("Imported: %d relationships", result.Imported))
		if result.Families > 0 || result.Members > 0 {
			parts = append(parts, fmt.Sprintf("%d families and %d members created", result.Families, result.Members))
		}
	}
	if result.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped (already exist)", result.Skipped))
	}
	if len(result.Errors) > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", len(result.Errors)))
	}
	fmt.Fprintln(w, strings.Join(parts, ", "))
}

func displayName(name string, id int64) string {
	if name == "" {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("%s (#%d)", name, id)
}
