package generator

// copySection is one heading of pattern-based copy with interchangeable
// bodies. Placeholders: {p} primary value, {s} secondary value, {title}
// rendered title, {list} the pool's list or table.
type copySection struct {
	Heading  string
	Variants []string
}

type contentPool struct {
	Sections []copySection
	List     string
}

var evaluationCopy = contentPool{
	List: "- **Track record**: how {p} has performed over time, not just recently.\n- **Costs**: the upfront and ongoing expenses involved.\n- **Risks**: what could go wrong and how likely it is.\n- **Fit**: how well the option matches your goals and timeline.\n- **Alternatives**: what else is available and how it compares.",
	Sections: []copySection{
		{
			Heading: "Overview",
			Variants: []string{
				"People searching for {title} usually want a straight answer backed by sensible reasoning. This page looks at {p} from a practical point of view, covering the strengths that stand out, the trade-offs that are easy to overlook, and the questions worth asking before you commit time or money. Treat it as a structured starting point for your own research rather than a final verdict.",
				"Questions like {title} rarely have a one-line answer, and that is exactly why a structured look helps. Below we break down {p} into the factors that matter most, highlight the trade-offs that often get ignored, and point out where independent research will pay off. Use it as a framework for your own decision rather than a final ruling.",
			},
		},
		{
			Heading: "Key factors to weigh",
			Variants: []string{
				"Before forming an opinion on {p}, it helps to line up the factors that usually decide the outcome:\n\n{list}",
				"A fair evaluation of {p} usually comes down to a handful of recurring factors:\n\n{list}",
			},
		},
		{
			Heading: "A closer look",
			Variants: []string{
				"The strongest case for {p} tends to rest on consistency. Options that deliver steady results over several years are generally easier to plan around than those that shine briefly and then fade. That said, past performance is only a guide, so it is worth checking whether the conditions that helped {p} in the past are still in place today.\n\nOn the other side of the ledger, costs and risks deserve equal attention. A choice that looks attractive on paper can become less appealing once fees, time commitments and uncertainty are included. Writing these down side by side makes the comparison far more honest and keeps the final decision grounded in your own priorities.",
				"Much of the appeal of {p} comes from a combination of stability and opportunity. When both are present, the decision becomes easier, because the upside is meaningful while the downside stays manageable. However, conditions change, so it is sensible to confirm that the reasons people favour {p} still apply right now.\n\nIt is equally important to look at what the choice will really cost. Beyond the obvious price, there are ongoing commitments, time demands and a level of uncertainty that varies from case to case. Laying these out clearly, and comparing them with your own goals, turns a vague impression into a decision you can defend.",
			},
		},
		{
			Heading: "Common questions",
			Variants: []string{
				"**Is {p} a good choice for everyone?** Not necessarily. The answer depends on your goals, budget and tolerance for risk.\n\n**How should I compare {p} with alternatives?** Use the same factors for every option and weigh them consistently, so that no single impressive detail dominates the decision.",
				"**Does {p} suit every situation?** No single option does. Your priorities, budget and appetite for risk will shape the right answer.\n\n**What is the best way to judge {p} against other options?** Apply one consistent set of criteria to each candidate, so the comparison stays fair and easy to review later.",
			},
		},
		{
			Heading: "Bottom line",
			Variants: []string{
				"Whether {title} is the right conclusion for you depends on how these factors line up with your situation. Take the time to check current information, compare a few alternatives and decide with a clear view of both benefits and risks.",
				"In the end, deciding on {title} is a personal judgement. Review up-to-date information, test your assumptions against a few alternatives and move forward once the benefits clearly outweigh the risks for you.",
			},
		},
	},
}

var locationCopy = contentPool{
	List: "- **Licensing and insurance**: confirm both before any work begins.\n- **Local experience**: providers who know {p} understand local regulations and conditions.\n- **Clear quotes**: written estimates with itemised costs.\n- **Reviews**: recent feedback from customers with similar jobs.\n- **Availability**: realistic timelines and responsive communication.",
	Sections: []copySection{
		{
			Heading: "Overview",
			Variants: []string{
				"Finding reliable {s} in {p} starts with knowing what good service looks like locally. This guide covers how providers in {p} typically operate, what affects pricing, and how to compare options so you can hire with confidence. Whether the job is urgent or planned well ahead, a little preparation makes the whole process smoother and helps you avoid costly surprises.",
				"If you need {s} in {p}, a bit of local knowledge goes a long way. Below you will find how providers in {p} usually work, which factors drive the final price, and what to check before you sign anything. The aim is simple: help you choose a provider you can trust, whether the work is an emergency or a scheduled project.",
			},
		},
		{
			Heading: "What to look for",
			Variants: []string{
				"When comparing {s} providers in {p}, focus on the following:\n\n{list}",
				"Good {s} providers in {p} tend to share a few traits:\n\n{list}",
			},
		},
		{
			Heading: "Pricing and timing",
			Variants: []string{
				"Costs for {s} in {p} vary with the size of the job, the materials involved and how quickly the work needs to happen. Emergency call-outs usually cost more than scheduled visits, and larger projects often benefit from getting several quotes. Asking each provider to break down labour and materials makes the quotes easier to compare.\n\nTiming matters as well. Demand often rises in busy seasons, so booking early can secure better availability. If your project is flexible, ask whether off-peak scheduling could reduce the price or shorten the wait.",
				"Pricing for {s} in {p} depends mainly on scope, materials and urgency. A planned job is usually cheaper than an emergency visit, and for bigger projects it is worth collecting at least three quotes. Request an itemised breakdown so you can see exactly where the money goes.\n\nScheduling can also affect the final bill. Busy periods push demand up and availability down, so plan ahead where possible. If the timing is flexible, providers may offer better rates outside their peak months.",
			},
		},
		{
			Heading: "Questions to ask",
			Variants: []string{
				"**Do you regularly work in {p}?** Local familiarity reduces delays and surprises.\n\n**What is included in the quote?** Make sure labour, materials, permits and clean-up are all covered.\n\n**Is the work guaranteed?** A written warranty shows confidence in the result.",
				"**How often do you take jobs in {p}?** Regular local work usually means fewer delays.\n\n**Which items does the estimate cover?** Check for labour, materials, permits and clean-up.\n\n**Do you offer a guarantee?** A written warranty is a good sign of quality.",
			},
		},
		{
			Heading: "Why local matters",
			Variants: []string{
				"Working with a provider based near {p} has practical advantages. Travel time is shorter, which can lower call-out fees, and local firms usually understand the building styles, permit rules and weather conditions that shape the work. They also depend on their local reputation, which gives them a strong reason to get the job right the first time.",
				"Hiring close to home brings real benefits in {p}. Shorter travel usually means lower call-out charges and faster response times, while local teams tend to know the permit process, common property types and seasonal conditions well. Because word of mouth matters to them, they have every reason to deliver careful, reliable work.",
			},
		},
		{
			Heading: "Next steps",
			Variants: []string{
				"Shortlist two or three {s} providers in {p}, compare their quotes side by side and check their references. A few careful questions now can save time, money and stress later.",
				"Start by contacting a few {s} providers in {p}, then compare quotes, warranties and reviews. Choosing carefully today keeps the project on budget and on schedule.",
			},
		},
	},
}

var comparisonCopy = contentPool{
	List: "| Factor | What to check for {p} | What to check for {s} |\n|---|---|---|\n| Cost | Upfront and ongoing expenses | Upfront and ongoing expenses |\n| Flexibility | How easily it adapts to change | How easily it adapts to change |\n| Value | Benefits over several years | Benefits over several years |\n| Support | Availability of help and resources | Availability of help and resources |",
	Sections: []copySection{
		{
			Heading: "Overview",
			Variants: []string{
				"Choosing between {p} and {s} is a common decision, and the right answer depends on what you value most. This comparison walks through how {p} and {s} differ in cost, flexibility, long-term value and everyday convenience, so you can see which option lines up with your priorities instead of relying on general impressions.",
				"Deciding between {p} and {s} comes up often, and there is rarely a universal winner. Below we compare {p} with {s} across cost, flexibility, long-term value and day-to-day convenience, making it easier to match the choice to your priorities rather than to popular opinion.",
			},
		},
		{
			Heading: "At a glance",
			Variants: []string{
				"Here is how {p} and {s} compare on the factors that matter most:\n\n{list}",
				"A quick side-by-side view of {p} and {s}:\n\n{list}",
			},
		},
		{
			Heading: "Where each option shines",
			Variants: []string{
				"{p} tends to appeal to people who want a specific set of strengths and are comfortable with the trade-offs that come with them. Before settling on it, consider how those strengths hold up over time and whether they match the way you actually plan to use it.\n\n{s}, on the other hand, often suits a different set of priorities. It can be the better fit when its particular advantages matter more to you than the benefits of the alternative. Looking at your real needs, rather than general rankings, is the most reliable way to break the tie.",
				"The case for {p} usually rests on a particular mix of strengths, along with trade-offs that some people accept more easily than others. Think about how those strengths will hold up over months or years, and whether they suit the way you will really use it.\n\n{s} tends to attract people with different priorities. It may be the stronger choice when its advantages line up more closely with your needs. Comparing both options against your own situation, rather than against generic rankings, usually settles the question.",
			},
		},
		{
			Heading: "Questions to settle first",
			Variants: []string{
				"**Which matters more to you, cost or flexibility?** Your answer often points clearly toward {p} or {s}.\n\n**How long will you rely on this choice?** Long-term use favours the option with lower ongoing costs.\n\n**Can you try before committing?** A trial or sample removes much of the guesswork.",
				"**Is cost or flexibility your top priority?** That single answer often decides between {p} and {s}.\n\n**How long will you use it?** Over longer periods, ongoing costs matter more than the initial price.\n\n**Is a trial available?** Testing first takes much of the risk out of the decision.",
			},
		},
		{
			Heading: "Costs over time",
			Variants: []string{
				"Looking beyond the initial price is one of the most useful steps in any comparison. Ongoing costs, maintenance, upgrades and the value you recover at the end can change the picture considerably. Estimating the total cost of choosing {p} over several years, and doing the same for the alternative, gives a much fairer basis for a decision.",
				"The sticker price tells only part of the story. Running costs, upkeep, upgrades and any value you can recover later often matter just as much over the long run. Working out what {p} is likely to cost across several years, then repeating the exercise for the other option, makes the comparison far more realistic.",
			},
		},
		{
			Heading: "Verdict",
			Variants: []string{
				"There is no single winner in the {p} versus {s} debate. Match each option against your priorities, check current details and choose the one that fits your situation best.",
				"Neither {p} nor {s} is right for everyone. Weigh both against your own needs, confirm the latest details and pick the option that serves you best over time.",
			},
		},
	},
}

var genericCopy = contentPool{
	List: "- **Purpose**: what it is meant to achieve and for whom.\n- **Requirements**: the time, budget or skills involved.\n- **Benefits**: the results people most often value.\n- **Limitations**: situations where it may not be the right fit.\n- **Resources**: where to learn more and get support.",
	Sections: []copySection{
		{
			Heading: "Overview",
			Variants: []string{
				"This page brings together the essentials of {title}. It explains what {p} involves, why it matters, and how to approach it sensibly, with practical pointers you can act on straight away. Whether you are new to {p} or revisiting it with fresh goals, the sections below offer a clear and organised overview.",
				"Here you will find a practical overview of {title}. We explain what {p} covers, why people care about it and how to get started in a sensible way. If you are exploring {p} for the first time or returning with new questions, the following sections give you a structured place to begin.",
			},
		},
		{
			Heading: "Highlights",
			Variants: []string{
				"A few points stand out when looking at {p}:\n\n{list}",
				"When people evaluate {p}, these points usually come up first:\n\n{list}",
			},
		},
		{
			Heading: "Getting started",
			Variants: []string{
				"The easiest way to approach {p} is step by step. Begin by clarifying what you want to achieve, then gather reliable information and set a realistic budget and timeline. Small, well-planned steps usually lead to better results than rushing into a large commitment.\n\nAs you progress, keep track of what works and what does not. Reviewing your experience regularly helps you adjust early, avoid repeated mistakes and build confidence in the choices you make along the way.",
				"A gradual approach to {p} tends to work best. Start with a clear goal, collect trustworthy information and agree on a budget and timeline you can keep. Steady, well-planned progress usually beats a rushed start.\n\nAlong the way, note what is working and what is not. Regular reviews make it easier to change course early, sidestep repeated errors and grow more confident with every decision you make.",
			},
		},
		{
			Heading: "Frequently asked questions",
			Variants: []string{
				"**Who is {p} best suited for?** Anyone whose goals match the benefits outlined above.\n\n**How long does it take to see results?** That varies, but steady effort and clear goals usually speed things up.\n\n**Where can I learn more?** Trusted local experts and reputable publications are good places to start.",
				"**Is {p} right for me?** It is if your goals line up with the benefits described here.\n\n**When will I see results?** Timelines differ, though consistent effort and clear targets help.\n\n**Where should I look for more information?** Reputable publications and experienced local professionals are a sound first stop.",
			},
		},
		{
			Heading: "Common mistakes to avoid",
			Variants: []string{
				"Many people approach {p} with high expectations and too little planning. Common mistakes include skipping basic research, underestimating the time involved and giving up before results have had a chance to appear. Setting realistic expectations from the start, and checking progress against them, avoids most of these problems.",
				"A frequent problem with {p} is starting without a plan. People often skip the research stage, misjudge how much time is needed or stop just before their efforts begin to pay off. Clear expectations at the outset, reviewed every so often, prevent most of these setbacks.",
			},
		},
		{
			Heading: "Summary",
			Variants: []string{
				"Understanding {p} does not have to be complicated. Focus on your goals, rely on trustworthy information and take measured steps, and you will be well placed to make the most of it.",
				"Making sense of {p} is easier than it first appears. Keep your goals in view, use reliable sources and move forward one step at a time to get the most value from it.",
			},
		},
	},
}
