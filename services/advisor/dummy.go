package advisorsvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/trezcool/soma/core/recommend"
)

type dummyAdvisor struct{}

var _ recommend.Advisor = (*dummyAdvisor)(nil)

// NewDummyAdvisor returns an offline Advisor that echoes the first course of the instruction.
func NewDummyAdvisor() recommend.Advisor {
	return dummyAdvisor{}
}

func (dummyAdvisor) Advise(ctx context.Context, instruction, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, line := range strings.Split(instruction, "\n") {
		if strings.HasPrefix(line, "- ") {
			title := strings.TrimPrefix(line, "- ")
			if i := strings.Index(title, ": "); i >= 0 {
				title = title[:i]
			}
			return fmt.Sprintf("For %q, start with %s.", prompt, title), nil
		}
	}
	return fmt.Sprintf("No course matches %q yet, check back later.", prompt), nil
}
