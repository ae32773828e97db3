package domain

// BusinessPlanData は AI モデルから返される PSST 事業計画書全体の構造です。
// スキーマ上はすべてのフィールドが必須で、部分的に埋まった状態は存在しません。
type BusinessPlanData struct {
	Summary  Summary  `json:"summary"`
	Problem  Problem  `json:"problem"`
	Solution Solution `json:"solution"`
	ScaleUp  ScaleUp  `json:"scaleUp"`
	Team     Team     `json:"team"`
}

// Summary は計画書冒頭の概要セクションです。
type Summary struct {
	Introduction    string `json:"introduction"`
	Differentiation string `json:"differentiation"`
	TargetMarket    string `json:"targetMarket"`
	Goals           string `json:"goals"`
}

// Problem は創業の動機と必要性 (P) です。
type Problem struct {
	Motivation string `json:"motivation"`
	Purpose    string `json:"purpose"`
}

// Solution は開発計画と実現方法 (S) です。
type Solution struct {
	DevPlan            string           `json:"devPlan"`
	StepwisePlan       string           `json:"stepwisePlan"`
	BudgetTable        []BudgetTableRow `json:"budgetTable"`
	CustomerResponse   string           `json:"customerResponse"`
	CompetitorAnalysis string           `json:"competitorAnalysis"`
}

// BudgetTableRow は段階別の推進日程の1行です。
type BudgetTableRow struct {
	Item    string `json:"item"`
	Period  string `json:"period"`
	Content string `json:"content"`
}

// ScaleUp は成長戦略と資金計画 (S) です。
type ScaleUp struct {
	FundingPlan            string           `json:"fundingPlan"`
	SalesPlan              string           `json:"salesPlan"`
	PolicyFundPlan         string           `json:"policyFundPlan"`
	DetailedBudget         []BudgetLineItem `json:"detailedBudget"`
	MarketResearchDomestic []MarketData     `json:"marketResearchDomestic"`
	MarketApproachDomestic string           `json:"marketApproachDomestic"`
	MarketResearchGlobal   []MarketData     `json:"marketResearchGlobal"`
	MarketApproachGlobal   string           `json:"marketApproachGlobal"`
}

// BudgetLineItem は事業費の詳細な積算内訳の1行です。
type BudgetLineItem struct {
	Category string  `json:"category"`
	Basis    string  `json:"basis"`
	Amount   float64 `json:"amount"`
}

// MarketData は市場規模グラフの1系列点です。
type MarketData struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Team はチーム構成と組織の力量 (T) です。
type Team struct {
	Capability   string `json:"capability"`
	HiringStatus string `json:"hiringStatus"`
	SocialValue  string `json:"socialValue"`
}
