package generation

import (
	"context"

	"novel-studio-api/internal/infrastructure/llm"

	"github.com/cloudwego/eino/schema"
)

// EinoOpener 将 Eino 流适配为编排器所需的消息流端口
type EinoOpener struct {
	opener *llm.Opener
}

// NewEinoOpener 创建 Eino 流适配器
func NewEinoOpener(opener *llm.Opener) *EinoOpener {
	return &EinoOpener{opener: opener}
}

// Open 打开上游流
func (o *EinoOpener) Open(ctx context.Context, req *llm.StreamRequest) (MessageStream, error) {
	reader, err := o.opener.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	return &einoStream{reader: reader}, nil
}

type einoStream struct {
	reader *schema.StreamReader[*schema.Message]
}

func (s *einoStream) Recv() (string, error) {
	msg, err := s.reader.Recv()
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}

func (s *einoStream) Close() {
	s.reader.Close()
}
