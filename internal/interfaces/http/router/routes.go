// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.List)
		projects.POST("", h.Project.Create)
		projects.GET("/:pid", h.Project.Get)
		projects.PUT("/:pid", h.Project.Update)
		projects.DELETE("/:pid", h.Project.Delete)

		// 项目设定
		projects.PUT("/:pid/world-settings", h.Project.UpdateWorldSettings)
		projects.POST("/:pid/recompute-words", h.Project.RecomputeWords)

		// 创建向导
		projects.GET("/:pid/wizard", h.Wizard.State)
		projects.POST("/:pid/wizard/advance", h.Wizard.Advance)
		projects.POST("/:pid/wizard/worldbuilding/generate", h.Wizard.GenerateWorldbuilding)
		projects.POST("/:pid/wizard/characters/generate", h.Wizard.GenerateCharacters)

		// 项目下的大纲
		projects.GET("/:pid/outlines", h.Outline.List)
		projects.POST("/:pid/outlines", h.Outline.Create)
		projects.POST("/:pid/outlines/reorder", h.Outline.Reorder)
		projects.POST("/:pid/outlines/generate", h.Outline.Generate) // SSE
		projects.PUT("/:pid/outlines/:oid", h.Outline.Update)
		projects.DELETE("/:pid/outlines/:oid", h.Outline.Delete)

		// 项目下的章节
		projects.GET("/:pid/chapters", h.Chapter.List)
		projects.GET("/:pid/chapters/:cid", h.Chapter.Get)
		projects.PUT("/:pid/chapters/:cid", h.Chapter.Update)
		projects.GET("/:pid/chapters/:cid/can-generate", h.Chapter.CanGenerate)
		projects.POST("/:pid/chapters/:cid/generate", h.Chapter.Generate) // SSE
		projects.POST("/:pid/chapters/:cid/recompute-words", h.Chapter.RecomputeWords)

		// 项目下的角色
		projects.GET("/:pid/characters", h.Character.List)
		projects.POST("/:pid/characters", h.Character.Create)
		projects.PUT("/:pid/characters/:chid", h.Character.Update)
		projects.DELETE("/:pid/characters/:chid", h.Character.Delete)

		// 文本润色与生成记录
		projects.POST("/:pid/polish", h.Generation.Polish) // SSE
		projects.GET("/:pid/generation-history", h.Generation.History)
	}
}
