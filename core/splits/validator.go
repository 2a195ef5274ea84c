package splits

import (
	"errors"
	"fmt"

	"SplitTrackFM/model"
)

// ErrEmptyCollaborators 协作者列表为空
var ErrEmptyCollaborators = errors.New("collaborator list is empty")

// PercentageMismatchError 分成比例之和不等于100
type PercentageMismatchError struct {
	Total int
}

func (e *PercentageMismatchError) Error() string {
	return fmt.Sprintf("collaborator percentages must sum to 100, got %d", e.Total)
}

// MissingPayoutTargetError 协作者既没有钱包地址也没有托管邮箱
type MissingPayoutTargetError struct {
	Name string
}

func (e *MissingPayoutTargetError) Error() string {
	return fmt.Sprintf("collaborator %q has neither a wallet address nor a custodial account email", e.Name)
}

// ValidateCollaborators 校验协作者列表：比例之和必须恰好为100，
// 且每位协作者至少有一个收款目标。纯函数，无副作用。
// 注意只检查总和，不单独检查每项的取值范围。
func ValidateCollaborators(collaborators []model.Collaborator) error {
	if len(collaborators) == 0 {
		return ErrEmptyCollaborators
	}

	total := 0
	for _, c := range collaborators {
		total += c.Percentage
	}
	if total != 100 {
		return &PercentageMismatchError{Total: total}
	}

	for _, c := range collaborators {
		if !c.HasPayoutTarget() {
			return &MissingPayoutTargetError{Name: c.Name}
		}
	}

	return nil
}
