package splits

import (
	"errors"
	"testing"

	"SplitTrackFM/model"
)

func TestValidateCollaborators(t *testing.T) {
	t.Run("valid split with wallet and custodial email", func(t *testing.T) {
		collaborators := []model.Collaborator{
			{Name: "Ana", Role: model.RoleArtist, Percentage: 60, WalletAddress: "0x1111111111111111111111111111111111111111"},
			{Name: "Luis", Role: model.RoleProducer, Percentage: 30, WalletAddress: "0x2222222222222222222222222222222222222222"},
			{Name: "Marta", Role: model.RoleDesigner, Percentage: 10, CustodialAccountEmail: "marta@example.com"},
		}

		if err := ValidateCollaborators(collaborators); err != nil {
			t.Fatalf("expected valid collaborators, got error: %v", err)
		}
	})

	t.Run("empty list", func(t *testing.T) {
		err := ValidateCollaborators(nil)
		if !errors.Is(err, ErrEmptyCollaborators) {
			t.Fatalf("expected ErrEmptyCollaborators, got %v", err)
		}
	})

	t.Run("percentages summing to 99", func(t *testing.T) {
		collaborators := []model.Collaborator{
			{Name: "Ana", Percentage: 60, WalletAddress: "0x1111111111111111111111111111111111111111"},
			{Name: "Luis", Percentage: 39, WalletAddress: "0x2222222222222222222222222222222222222222"},
		}

		err := ValidateCollaborators(collaborators)
		var mismatch *PercentageMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected PercentageMismatchError, got %v", err)
		}
		if mismatch.Total != 99 {
			t.Errorf("expected reported total 99, got %d", mismatch.Total)
		}
	})

	t.Run("percentages summing to 101", func(t *testing.T) {
		collaborators := []model.Collaborator{
			{Name: "Ana", Percentage: 60, WalletAddress: "0x1111111111111111111111111111111111111111"},
			{Name: "Luis", Percentage: 41, WalletAddress: "0x2222222222222222222222222222222222222222"},
		}

		err := ValidateCollaborators(collaborators)
		var mismatch *PercentageMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected PercentageMismatchError, got %v", err)
		}
		if mismatch.Total != 101 {
			t.Errorf("expected reported total 101, got %d", mismatch.Total)
		}
	})

	t.Run("missing payout target", func(t *testing.T) {
		collaborators := []model.Collaborator{
			{Name: "Ana", Percentage: 50, WalletAddress: "0x1111111111111111111111111111111111111111"},
			{Name: "Luis", Percentage: 50},
		}

		err := ValidateCollaborators(collaborators)
		var missing *MissingPayoutTargetError
		if !errors.As(err, &missing) {
			t.Fatalf("expected MissingPayoutTargetError, got %v", err)
		}
		if missing.Name != "Luis" {
			t.Errorf("expected missing payout target for Luis, got %q", missing.Name)
		}
	})

	t.Run("pathological negative split summing to 100 passes", func(t *testing.T) {
		// 只校验总和，不校验单项取值范围；这是刻意保留的行为
		collaborators := []model.Collaborator{
			{Name: "Ana", Percentage: 150, WalletAddress: "0x1111111111111111111111111111111111111111"},
			{Name: "Luis", Percentage: -50, WalletAddress: "0x2222222222222222222222222222222222222222"},
		}

		if err := ValidateCollaborators(collaborators); err != nil {
			t.Fatalf("sum check alone should pass [150,-50], got error: %v", err)
		}
	})
}
